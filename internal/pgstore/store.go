package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NHHoangTuan/todo-api/task"
)

const taskColumns = `id, title, description, status, priority, due_date, dependencies, created_at, updated_at, version`

// Store implements task.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to connStr, applies migrations and returns a Store that owns
// the pool.
func Open(ctx context.Context, connStr string, logger *slog.Logger) (*Store, error) {
	pool, err := NewPool(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var status, priority string
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.DueDate,
		&t.Dependencies,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return task.Task{}, err
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]task.Task, error) {
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*task.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, task.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	return &t, nil
}

func (s *Store) FindAllByID(ctx context.Context, ids []string) ([]task.Task, error) {
	if len(ids) == 0 {
		return []task.Task{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	found, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]task.Task, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	result := make([]task.Task, 0, len(found))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Store) FindReferencing(ctx context.Context, id string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE $1 = ANY(dependencies) ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("find referencing tasks: %w", err)
	}
	return collectTasks(rows)
}

func (s *Store) Find(ctx context.Context, q task.Query) ([]task.Task, error) {
	where, args := whereClause(q.Filter)
	sql := `SELECT ` + taskColumns + ` FROM tasks` + where + orderClause(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return collectTasks(rows)
}

func (s *Store) Count(ctx context.Context, filter task.Filter) (int, error) {
	where, args := whereClause(filter)
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (s *Store) Create(ctx context.Context, t *task.Task) error {
	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		 ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, deps, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return task.Conflict(t.ID)
	}
	t.Version = 0
	return nil
}

func (s *Store) Save(ctx context.Context, t *task.Task) error {
	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
		     dependencies = $7, updated_at = $8, version = version + 1
		 WHERE id = $1 AND version = $9`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, deps, t.UpdatedAt, t.Version,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check task %s: %w", t.ID, err)
		}
		if !exists {
			return task.NotFound(t.ID)
		}
		return task.Conflict(t.ID)
	}
	t.Version++
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return task.NotFound(id)
	}
	return nil
}

func whereClause(filter task.Filter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Title != "" {
		args = append(args, filter.Title)
		conds = append(conds, fmt.Sprintf("strpos(lower(title), lower($%d)) > 0", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// sortColumns maps sort fields to SQL expressions. Priority sorts by
// importance, matching task.SortTasks.
var sortColumns = map[string]string{
	task.SortCreatedAt: "created_at",
	task.SortUpdatedAt: "updated_at",
	task.SortTitle:     "title",
	task.SortStatus:    "status",
	task.SortPriority:  "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE -1 END",
	task.SortDueDate:   "due_date",
}

func orderClause(keys []task.SortKey) string {
	if len(keys) == 0 {
		keys = task.DefaultSort
	}
	parts := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		column, ok := sortColumns[key.Field]
		if !ok {
			continue
		}
		direction := "ASC"
		if key.Desc {
			direction = "DESC"
		}
		if key.Field == task.SortDueDate {
			// Tasks without a due date always sort last.
			parts = append(parts, column+" IS NULL")
		}
		parts = append(parts, column+" "+direction)
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

var _ task.Store = (*Store)(nil)
