package api

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

func TestNewPaginatedTasksResponse(t *testing.T) {
	t.Parallel()

	makeTasks := func(n int) []domain.Task {
		owner := uuid.New()
		tasks := make([]domain.Task, n)
		for i := range tasks {
			tasks[i] = *sampleTask(owner)
		}
		return tasks
	}

	tests := []struct {
		name        string
		items       int
		total       int64
		page, limit int
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{"empty result", 0, 0, 1, 10, 0, false, false},
		{"single partial page", 3, 3, 1, 10, 1, false, false},
		{"exact multiple of the limit", 10, 20, 1, 10, 2, true, false},
		{"middle page", 10, 25, 2, 10, 3, true, true},
		{"short last page", 5, 25, 3, 10, 3, false, true},
		{"page past the end", 0, 25, 9, 10, 3, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := NewPaginatedTasksResponse(makeTasks(tc.items), tc.total, tc.page, tc.limit)

			assert.Len(t, resp.Items, tc.items)
			assert.Equal(t, tc.total, resp.Total)
			assert.Equal(t, tc.page, resp.Page)
			assert.Equal(t, tc.limit, resp.Limit)
			assert.Equal(t, tc.wantPages, resp.TotalPages)
			assert.Equal(t, tc.wantNext, resp.HasNextPage)
			assert.Equal(t, tc.wantPrev, resp.HasPrevPage)
		})
	}
}

func TestTaskToResponse(t *testing.T) {
	t.Parallel()

	t.Run("nil tags marshal as an empty list", func(t *testing.T) {
		task := sampleTask(uuid.New())
		task.Tags = nil

		resp := taskToResponse(task)
		assert.NotNil(t, resp.Tags)
		assert.Empty(t, resp.Tags)
	})

	t.Run("collaborators and comments are carried over", func(t *testing.T) {
		task := sampleTask(uuid.New())
		collaborator := uuid.New()
		task.Collaborators = []uuid.UUID{collaborator}
		task.Comments = []domain.Comment{{
			ID:       uuid.New(),
			TaskID:   task.ID,
			AuthorID: collaborator,
			Body:     "on it",
		}}

		resp := taskToResponse(task)
		assert.Equal(t, []string{collaborator.String()}, resp.Collaborators)
		assert.Len(t, resp.Comments, 1)
		assert.Equal(t, "on it", resp.Comments[0].Body)
	})
}
