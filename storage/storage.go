package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Mr-Cheen1/todo-list/domain"
)

// ErrTaskNotFound is returned when an update or delete targets an id that
// does not exist.
var ErrTaskNotFound = errors.New("task not found")

// InvalidQueryError marks list queries built from bad client input, such as
// a sort field outside the whitelist. Handlers map it to a client error.
type InvalidQueryError interface {
	error
	InvalidQuery()
}

type invalidQueryError struct{ msg string }

func (e invalidQueryError) Error() string { return e.msg }
func (e invalidQueryError) InvalidQuery() {}

// Storage provides access to the tasks table.
type Storage struct {
	db *sql.DB
}

// Open connects to Postgres with the given connection string. The connection
// is verified lazily; call Ping to fail fast at startup.
func Open(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Storage) Close() error { return s.db.Close() }

const schema = `CREATE TABLE IF NOT EXISTS tasks (
	id SERIAL PRIMARY KEY,
	task_text VARCHAR(255) NOT NULL,
	createdDate DATE NOT NULL,
	expectedDate DATE NOT NULL,
	status INT NOT NULL DEFAULT 0
)`

// EnsureSchema creates the tasks table when it does not exist yet.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Whitelist of ORDER BY targets; anything else is rejected before reaching
// the database.
var sortColumns = map[string]bool{
	"id":           true,
	"task_text":    true,
	"createdDate":  true,
	"expectedDate": true,
	"status":       true,
}

func buildListQuery(q domain.ListQuery) (string, []any, error) {
	query := "SELECT id, task_text, createdDate, expectedDate, status FROM tasks"
	var args []any
	if q.Status != nil {
		query += " WHERE status = $1"
		args = append(args, int(*q.Status))
	}
	field := q.Field
	if field == "" {
		field = domain.DefaultSortField
	}
	if !sortColumns[field] {
		return "", nil, invalidQueryError{fmt.Sprintf("invalid sort field: %s", field)}
	}
	// Unquoted on purpose: the schema creates the columns unquoted, so
	// Postgres folds both to lowercase and they match. The whitelist above
	// guards against injection.
	query += " ORDER BY " + field
	if q.Order == domain.SortDesc {
		query += " DESC"
	}
	return query, args, nil
}

// ListTasks returns tasks matching the query. The result is never nil.
func (s *Storage) ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error) {
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var (
			task     domain.Task
			created  time.Time
			expected time.Time
			status   int
		)
		if err := rows.Scan(&task.ID, &task.Text, &created, &expected, &status); err != nil {
			return nil, err
		}
		task.CreatedDate = domain.DateOf(created)
		task.ExpectedDate = domain.DateOf(expected)
		task.Status = domain.Status(status)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CreateTask inserts the task and returns the server-assigned id.
func (s *Storage) CreateTask(ctx context.Context, t domain.Task) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO tasks (task_text, createdDate, expectedDate, status) VALUES ($1, $2, $3, $4) RETURNING id",
		t.Text, t.CreatedDate.Time, t.ExpectedDate.Time, int(t.Status),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateTask overwrites the task row keyed by id.
func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET task_text = $1, createdDate = $2, expectedDate = $3, status = $4 WHERE id = $5",
		t.Text, t.CreatedDate.Time, t.ExpectedDate.Time, int(t.Status), t.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task row keyed by id.
func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
