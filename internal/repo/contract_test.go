package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapi/internal/model"
)

// The two backends must be indistinguishable through the TaskRepository
// contract, so a single suite runs against both. newRepo returns a fresh
// empty store for every subtest.
func runContractSuite(t *testing.T, newRepo func(t *testing.T) TaskRepository) {
	ctx := context.Background()

	boolPtr := func(b bool) *bool { return &b }

	seed := func(t *testing.T, r TaskRepository, tasks ...model.Task) []model.Task {
		t.Helper()
		created := make([]model.Task, 0, len(tasks))
		for _, task := range tasks {
			c, err := r.Create(ctx, task.Title, task.Done)
			require.NoError(t, err)
			created = append(created, c)
		}
		return created
	}

	titles := func(items []model.Task) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Title
		}
		return out
	}

	t.Run("sort by title with duplicate titles ties break by id", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "Buy bread"},
			model.Task{Title: "Buy milk"},
			model.Task{Title: "Same", Done: false},
			model.Task{Title: "Same", Done: true},
			model.Task{Title: "Walk dog"},
		)

		res, err := r.List(ctx, model.ListQuery{Limit: 50, Sort: "title", Order: "asc"})
		require.NoError(t, err)

		assert.Equal(t, 5, res.Total)
		assert.Equal(t, []string{"Buy bread", "Buy milk", "Same", "Same", "Walk dog"}, titles(res.Items))
		// The two "Same" rows keep ascending id order.
		assert.Less(t, res.Items[2].ID, res.Items[3].ID)
	})

	t.Run("descending sort still breaks ties by ascending id", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "Same"},
			model.Task{Title: "Same"},
			model.Task{Title: "Aaa"},
			model.Task{Title: "Same"},
		)

		res, err := r.List(ctx, model.ListQuery{Limit: 50, Sort: "title", Order: "desc"})
		require.NoError(t, err)

		require.Equal(t, 4, len(res.Items))
		assert.Equal(t, []string{"Same", "Same", "Same", "Aaa"}, titles(res.Items))
		assert.Less(t, res.Items[0].ID, res.Items[1].ID)
		assert.Less(t, res.Items[1].ID, res.Items[2].ID)
	})

	t.Run("sort by done groups false before true on asc", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "a", Done: true},
			model.Task{Title: "b", Done: false},
			model.Task{Title: "c", Done: true},
			model.Task{Title: "d", Done: false},
		)

		res, err := r.List(ctx, model.ListQuery{Limit: 50, Sort: "done", Order: "asc"})
		require.NoError(t, err)

		assert.Equal(t, []string{"b", "d", "a", "c"}, titles(res.Items))
	})

	t.Run("pagination is complete with duplicate sort values", func(t *testing.T) {
		r := newRepo(t)
		for i := 0; i < 13; i++ {
			// Only three distinct titles, so nearly every page boundary
			// falls inside a run of ties.
			_, err := r.Create(ctx, fmt.Sprintf("Group %d", i%3), i%2 == 0)
			require.NoError(t, err)
		}

		full, err := r.List(ctx, model.ListQuery{Limit: 100, Sort: "title", Order: "asc"})
		require.NoError(t, err)
		require.Equal(t, 13, full.Total)

		const pageSize = 4
		var paged []model.Task
		for offset := 0; offset < full.Total; offset += pageSize {
			page, err := r.List(ctx, model.ListQuery{
				Limit: pageSize, Offset: offset, Sort: "title", Order: "asc",
			})
			require.NoError(t, err)
			assert.Equal(t, 13, page.Total, "every page reports the same total")
			assert.LessOrEqual(t, len(page.Items), pageSize)
			paged = append(paged, page.Items...)
		}

		require.Equal(t, len(full.Items), len(paged))
		seen := make(map[int64]bool)
		for i, item := range paged {
			assert.Equal(t, full.Items[i].ID, item.ID, "pages concatenate to the full set in order")
			assert.False(t, seen[item.ID], "no row appears twice")
			seen[item.ID] = true
		}
	})

	t.Run("done and search filters compose", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "Buy bread", Done: false},
			model.Task{Title: "Buy milk", Done: true},
			model.Task{Title: "Walk dog", Done: true},
			model.Task{Title: "buy cheese", Done: true},
		)

		res, err := r.List(ctx, model.ListQuery{
			Limit: 50, Done: boolPtr(true), Search: "buy", Sort: "id", Order: "asc",
		})
		require.NoError(t, err)

		assert.Equal(t, 2, res.Total)
		assert.Equal(t, []string{"Buy milk", "buy cheese"}, titles(res.Items))
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "Write REPORT"},
			model.Task{Title: "report back"},
			model.Task{Title: "unrelated"},
		)

		res, err := r.List(ctx, model.ListQuery{Limit: 50, Search: "Report", Sort: "id", Order: "asc"})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("search wildcards match literally", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "progress 50% done"},
			model.Task{Title: "progress 50x done"},
			model.Task{Title: "snake_case"},
			model.Task{Title: "snakeXcase"},
			model.Task{Title: `back\slash`},
		)

		for _, tc := range []struct {
			search string
			want   int
		}{
			{"50%", 1},
			{"snake_", 1},
			{`back\`, 1},
			{"%", 1},
		} {
			res, err := r.List(ctx, model.ListQuery{Limit: 50, Search: tc.search, Sort: "id", Order: "asc"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Total, "search %q", tc.search)
		}
	})

	t.Run("offset past the end returns empty page with accurate total", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r, model.Task{Title: "one"}, model.Task{Title: "two"})

		res, err := r.List(ctx, model.ListQuery{Limit: 10, Offset: 100, Sort: "id", Order: "asc"})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("zero limit returns no rows but a real total", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r, model.Task{Title: "one"}, model.Task{Title: "two"}, model.Task{Title: "three"})

		res, err := r.List(ctx, model.ListQuery{Limit: 0, Sort: "id", Order: "asc"})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, 3, res.Total)
	})

	t.Run("create then get round-trips", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, "Round trip", true)
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		got, err := r.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("ids are assigned in increasing order", func(t *testing.T) {
		r := newRepo(t)
		created := seed(t, r,
			model.Task{Title: "first"},
			model.Task{Title: "second"},
			model.Task{Title: "third"},
		)
		assert.Less(t, created[0].ID, created[1].ID)
		assert.Less(t, created[1].ID, created[2].ID)
	})

	t.Run("update replaces title and done, id stays", func(t *testing.T) {
		r := newRepo(t)
		created := seed(t, r, model.Task{Title: "before", Done: false})[0]

		updated, err := r.Update(ctx, created.ID, "after", true)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "after", updated.Title)
		assert.True(t, updated.Done)

		got, err := r.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update of a missing id reports absence and creates nothing", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r, model.Task{Title: "only one"})

		_, err := r.Update(ctx, 9999, "ghost", true)
		assert.ErrorIs(t, err, ErrNotFound)

		res, err := r.List(ctx, model.ListQuery{Limit: 50, Sort: "id", Order: "asc"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
	})

	t.Run("get of a missing id reports absence", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Get(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete twice reports true then false", func(t *testing.T) {
		r := newRepo(t)
		created := seed(t, r, model.Task{Title: "doomed"})[0]

		deleted, err := r.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = r.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = r.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("idempotency keys resolve to the first resource", func(t *testing.T) {
		r := newRepo(t)
		created := seed(t, r, model.Task{Title: "a"}, model.Task{Title: "b"})

		_, err := r.GetIdempotencyKey(ctx, "key-1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, r.SaveIdempotencyKey(ctx, "key-1", created[0].ID))
		// A second save with the same key is a no-op.
		require.NoError(t, r.SaveIdempotencyKey(ctx, "key-1", created[1].ID))

		id, err := r.GetIdempotencyKey(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, created[0].ID, id)
	})

	t.Run("stats count by done flag", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			model.Task{Title: "a", Done: true},
			model.Task{Title: "b", Done: false},
			model.Task{Title: "c", Done: false},
		)

		stats, err := r.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{Total: 3, Done: 1, Pending: 2}, stats)
	})
}
