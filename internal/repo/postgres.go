package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskapi/internal/model"
)

// sortColumns is the only way a sort key reaches SQL text. Caller input is
// used to index this map, never interpolated directly.
var sortColumns = map[string]string{
	"id":    "id",
	"title": "title",
	"done":  "done",
}

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

// escapeLike makes a user-supplied search string safe inside a LIKE pattern:
// literal \, % and _ must match themselves, not act as wildcards.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *PostgresRepo) List(ctx context.Context, q model.ListQuery) (model.ListResult, error) {
	var (
		where []string
		args  []any
	)
	if q.Done != nil {
		args = append(args, *q.Done)
		where = append(where, fmt.Sprintf("done = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		where = append(where, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}
	filterArgs := args

	col, ok := sortColumns[q.Sort]
	if !ok {
		// Sort values are validated upstream; an unknown key that still
		// reaches us falls back to id instead of failing.
		col = "id"
	}
	dir := "ASC"
	if q.Order == "desc" {
		dir = "DESC"
	}
	orderSQL := " ORDER BY " + col + " " + dir
	if col != "id" {
		orderSQL += ", id ASC"
	}

	args = append(args, q.Limit)
	limitSQL := fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, q.Offset)
	limitSQL += fmt.Sprintf(" OFFSET $%d", len(args))

	// count(*) OVER () is evaluated before LIMIT/OFFSET, so the total and
	// the page come from one statement and can never disagree.
	query := "SELECT id, title, done, count(*) OVER () FROM tasks" +
		whereSQL + orderSQL + limitSQL

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return model.ListResult{}, err
	}
	defer rows.Close()

	var total int
	items := make([]model.Task, 0, q.Limit)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Done, &total); err != nil {
			return model.ListResult{}, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return model.ListResult{}, err
	}

	// An empty page carries no window rows, so the total has to come from
	// a count with the same filters (offset past the end, or limit 0).
	if len(items) == 0 {
		err := r.pool.QueryRow(ctx, "SELECT count(*) FROM tasks"+whereSQL, filterArgs...).Scan(&total)
		if err != nil {
			return model.ListResult{}, err
		}
	}

	return model.ListResult{Items: items, Total: total}, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, done
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Title, &t.Done)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (r *PostgresRepo) Create(ctx context.Context, title string, done bool) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, done)
		VALUES ($1, $2)
		RETURNING id, title, done
	`, title, done).Scan(&t.ID, &t.Title, &t.Done)
	return t, err
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, title string, done bool) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, done = $3
		WHERE id = $1
		RETURNING id, title, done
	`, id, title, done).Scan(&t.ID, &t.Title, &t.Done)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PostgresRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *PostgresRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *PostgresRepo) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE done),
		       count(*) FILTER (WHERE NOT done)
		FROM tasks
	`).Scan(&s.Total, &s.Done, &s.Pending)
	return s, err
}
