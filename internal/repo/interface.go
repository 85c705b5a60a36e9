package repo

import (
	"context"
	"errors"

	"taskapi/internal/model"
)

var ErrNotFound = errors.New("not found")

// Stats summarizes the store by done flag.
type Stats struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Pending int `json:"pending"`
}

// TaskRepository is the storage contract shared by the in-memory and postgres
// backends. Both must produce identical observable results: the same filter
// semantics, the same ordering (ties on the sort field break by ascending id)
// and the same totals. Absence of a row is reported via ErrNotFound (or a
// false return from Delete), never via a storage error.
type TaskRepository interface {
	List(ctx context.Context, q model.ListQuery) (model.ListResult, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	Create(ctx context.Context, title string, done bool) (model.Task, error)
	Update(ctx context.Context, id int64, title string, done bool) (model.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, key string) (int64, error)
	GetStats(ctx context.Context) (Stats, error)
}
