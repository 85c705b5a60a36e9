package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"taskapi/internal/model"
)

// MemoryRepo keeps tasks in an ordered in-process slice. Handlers call it
// from concurrent goroutines, so every operation takes the mutex; reads share
// it, mutations hold it exclusively.
type MemoryRepo struct {
	mu     sync.RWMutex
	tasks  []model.Task
	nextID int64
	idem   map[string]int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		idem:   make(map[string]int64),
	}
}

func (r *MemoryRepo) List(ctx context.Context, q model.ListQuery) (model.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(q.Search)
	matched := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if q.Done != nil && t.Done != *q.Done {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		matched = append(matched, t)
	}

	desc := q.Order == "desc"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]

		var less, equal bool
		switch q.Sort {
		case "title":
			less, equal = a.Title < b.Title, a.Title == b.Title
		case "done":
			less, equal = !a.Done && b.Done, a.Done == b.Done
		default: // id
			less = a.ID < b.ID
		}

		// Ties break by ascending id no matter the requested order,
		// so pages stay stable across calls.
		if equal {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	items := make([]model.Task, end-start)
	copy(items, matched[start:end])

	return model.ListResult{Items: items, Total: total}, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (r *MemoryRepo) Create(ctx context.Context, title string, done bool) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := model.Task{ID: r.nextID, Title: title, Done: done}
	r.nextID++ // ids are never reused, even after deletions
	r.tasks = append(r.tasks, t)
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id int64, title string, done bool) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Title = title
			r.tasks[i].Done = done
			return r.tasks[i], nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.idem[key]; !exists {
		r.idem[key] = resourceID
	}
	return nil
}

func (r *MemoryRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idem[key]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (r *MemoryRepo) GetStats(ctx context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Total: len(r.tasks)}
	for _, t := range r.tasks {
		if t.Done {
			s.Done++
		} else {
			s.Pending++
		}
	}
	return s, nil
}
