package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/baiirun/tasks/internal/model"
)

// MaxNameLength matches the width of the name column.
const MaxNameLength = 100

const taskColumns = `id, name, description, status, created_at`

// CreateTask inserts a new not_started task and returns its id.
// Name and description are trimmed and must not be empty.
func (db *DB) CreateTask(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	if description == "" {
		return 0, fmt.Errorf("%w: task description must not be empty", ErrValidation)
	}

	var id int64
	err := db.withTx(ctx, "create task", func(ctx context.Context, tx *sql.Tx) error {
		query := `INSERT INTO tasks (name, description, status) VALUES (?, ?, ?)`
		args := []any{name, description, model.StatusNotStarted}

		if db.dialect.returning() {
			err := tx.QueryRowContext(ctx, db.dialect.rebind(query+` RETURNING id`), args...).Scan(&id)
			if err != nil {
				return &StoreError{Op: "create task", Err: err}
			}
			return nil
		}

		result, err := tx.ExecContext(ctx, db.dialect.rebind(query), args...)
		if err != nil {
			return &StoreError{Op: "create task", Err: err}
		}
		id, err = result.LastInsertId()
		if err != nil {
			return &StoreError{Op: "read new task id", Err: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ValidateName checks a trimmed task name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: task name must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: task name must be at most %d characters", ErrValidation, MaxNameLength)
	}
	return nil
}

// ListActiveTasks returns not_started and in_progress tasks by ascending id.
// Done tasks stay in storage but are not listed.
func (db *DB) ListActiveTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status IN (?, ?) ORDER BY id ASC`
	return db.queryTasks(ctx, "list active tasks", query, model.StatusNotStarted, model.StatusInProgress)
}

// ListTasks returns every task regardless of status by ascending id.
func (db *DB) ListTasks(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id ASC`
	return db.queryTasks(ctx, "list tasks", query)
}

// GetTask retrieves a task by id.
func (db *DB) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var task *model.Task
	err := db.withConn(ctx, "get task", func(ctx context.Context, conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx,
			db.dialect.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)

		t, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return &StoreError{Op: "get task", Err: err}
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus moves a task to in_progress or done.
// Setting the status a task already has succeeds.
func (db *DB) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	if !status.IsSettable() {
		return fmt.Errorf("%w: status can only be changed to %s or %s, got %q",
			ErrValidation, model.StatusInProgress, model.StatusDone, status)
	}

	return db.withTx(ctx, "update status", func(ctx context.Context, tx *sql.Tx) error {
		if err := db.checkExists(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			db.dialect.rebind(`UPDATE tasks SET status = ? WHERE id = ?`), status, id)
		if err != nil {
			return &StoreError{Op: "update status", Err: err}
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return notFound(id)
		}
		return nil
	})
}

// DeleteTask removes a task. Callers are expected to have confirmed with the user.
// A task that disappears between the lookup and the delete is reported as not found.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	return db.withTx(ctx, "delete task", func(ctx context.Context, tx *sql.Tx) error {
		if err := db.checkExists(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, db.dialect.rebind(`DELETE FROM tasks WHERE id = ?`), id)
		if err != nil {
			return &StoreError{Op: "delete task", Err: err}
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return notFound(id)
		}
		return nil
	})
}

func (db *DB) checkExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var count int
	err := tx.QueryRowContext(ctx, db.dialect.rebind(`SELECT COUNT(*) FROM tasks WHERE id = ?`), id).Scan(&count)
	if err != nil {
		return &StoreError{Op: "check task", Err: err}
	}
	if count == 0 {
		return notFound(id)
	}
	return nil
}

// queryTasks runs a task-returning query on its own connection.
func (db *DB) queryTasks(ctx context.Context, op, query string, args ...any) ([]model.Task, error) {
	var tasks []model.Task
	err := db.withConn(ctx, op, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, db.dialect.rebind(query), args...)
		if err != nil {
			return &StoreError{Op: op, Err: err}
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return &StoreError{Op: "scan task", Err: err}
			}
			tasks = append(tasks, *task)
		}
		if err := rows.Err(); err != nil {
			return &StoreError{Op: op, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*model.Task, error) {
	task := &model.Task{}
	var status string
	var createdAt any
	if err := s.Scan(&task.ID, &task.Name, &task.Description, &status, &createdAt); err != nil {
		return nil, err
	}

	task.Status = model.Status(status)
	if !task.Status.IsValid() {
		return nil, fmt.Errorf("invalid stored status %q for task %d", status, task.ID)
	}
	at, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for task %d: %w", task.ID, err)
	}
	task.CreatedAt = at
	return task, nil
}

// sqlite may hand back CURRENT_TIMESTAMP defaults as text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case []byte:
		return parseTimestamp(string(t))
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}
