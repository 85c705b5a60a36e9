package service

import (
	"context"
	"errors"
	"strings"

	"taskapi/internal/model"
	"taskapi/internal/repo"
)

var ErrValidation = errors.New("validation error")

const (
	defaultLimit = 20
	maxLimit     = 100
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, title string, done bool, idempKey string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrValidation
	}

	// Replaying an idempotency key returns the task created the first time
	// instead of creating it again.
	if idempKey != "" {
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, existingID)
		}
	}

	task, err := s.repo.Create(ctx, title, done)
	if err != nil {
		return task, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, task.ID)
	}

	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, q model.ListQuery) (model.ListResult, error) {
	if q.Limit <= 0 || q.Limit > maxLimit {
		q.Limit = defaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, q)
}

func (s *TaskService) Update(ctx context.Context, id int64, title string, done bool) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrValidation
	}
	return s.repo.Update(ctx, id, title, done)
}

func (s *TaskService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.repo.GetStats(ctx)
}
