package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// priorityRank orders priorities by severity instead of alphabetically.
const priorityRank = `CASE t.priority
	WHEN 'urgent' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	ELSE 1 END`

// sortColumns whitelists the ORDER BY expressions reachable from caller
// input. Anything else falls back to created_at.
var sortColumns = map[string]string{
	store.SortByCreatedAt: "t.created_at",
	store.SortByUpdatedAt: "t.updated_at",
	store.SortByDueDate:   "t.due_date",
	store.SortByTitle:     "lower(t.title)",
	store.SortByStatus:    "t.status",
	store.SortByPriority:  priorityRank,
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// buildListConditions renders the WHERE clause for a task listing: the
// requester-visibility predicate plus every populated filter, AND-combined.
func buildListConditions(
	requesterID uuid.UUID,
	filter store.TaskFilter,
) (string, []any, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	owner := arg(requesterID)
	if filter.IncludeCollaborations {
		conds = append(conds, fmt.Sprintf(`(t.owner_id = %[1]s OR EXISTS (
			SELECT 1 FROM task_collaborators tc
			WHERE tc.task_id = t.id AND tc.user_id = %[1]s
		))`, owner))
	} else {
		conds = append(conds, fmt.Sprintf("t.owner_id = %s", owner))
	}

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("t.status = %s", arg(*filter.Status)))
	}
	if filter.Priority != nil {
		conds = append(conds, fmt.Sprintf("t.priority = %s", arg(*filter.Priority)))
	}
	if len(filter.Tags) > 0 {
		// Any listed tag present: jsonb "exists any" against the tag array.
		encoded, err := json.Marshal(filter.Tags)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode tag filter: %w", err)
		}
		conds = append(conds, fmt.Sprintf(
			"t.tags ?| array(SELECT jsonb_array_elements_text(%s::jsonb))", arg(encoded)))
	}
	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("t.category = %s", arg(*filter.Category)))
	}
	if filter.Search != "" {
		pattern := arg("%" + escapeLike(filter.Search) + "%")
		conds = append(conds, fmt.Sprintf(
			`(t.title ILIKE %[1]s ESCAPE '\' OR t.description ILIKE %[1]s ESCAPE '\')`, pattern))
	}
	if filter.DueFrom != nil {
		conds = append(conds, fmt.Sprintf("t.due_date >= %s", arg(*filter.DueFrom)))
	}
	if filter.DueTo != nil {
		conds = append(conds, fmt.Sprintf("t.due_date <= %s", arg(*filter.DueTo)))
	}

	return strings.Join(conds, " AND "), args, nil
}

// orderByClause renders the ORDER BY for a listing. Ties on the chosen
// field are broken by creation time and then id so pagination is stable.
func orderByClause(sort store.TaskSort) string {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns[store.SortByCreatedAt]
	}
	direction := "DESC"
	if sort.Ascending {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, t.created_at ASC, t.id ASC", column, direction)
}

// List implements store.TaskStore.List
// The page slice and the total count are computed from the same filtered
// set but in separate statements; under concurrent writes the count is
// advisory (see the concurrency notes in the service layer).
func (s *TaskStore) List(
	ctx context.Context,
	requesterID uuid.UUID,
	filter store.TaskFilter,
	sort store.TaskSort,
	page store.Page,
) ([]domain.Task, int64, error) {
	where, args, err := buildListConditions(requesterID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	countQuery := "SELECT count(*) FROM tasks t WHERE " + where
	listQuery := fmt.Sprintf(
		"SELECT %s FROM tasks t WHERE %s %s LIMIT $%d OFFSET $%d",
		taskColumns,
		where,
		orderByClause(sort),
		len(args)+1,
		len(args)+2,
	)

	var tasks []domain.Task
	var total int64
	err = withRetry(ctx, s.retryable(), "list_tasks", func() error {
		if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return MapError(err)
		}

		listArgs := append(append([]any{}, args...), page.Limit, page.Offset())
		rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = rows.Close() }()

		tasks = tasks[:0]
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return MapError(err)
			}
			tasks = append(tasks, *task)
		}
		if err := rows.Err(); err != nil {
			return MapError(err)
		}
		return s.hydrateAll(ctx, tasks)
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
