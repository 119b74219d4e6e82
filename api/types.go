package api

import (
	"context"

	"github.com/Mr-Cheen1/todo-list/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	ListTasks(ctx context.Context, q domain.ListQuery) ([]domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (int64, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
}
