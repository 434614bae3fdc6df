package task

import (
	"context"
	"time"

	"taskplanner/internal/model"
)

// Store is the persistence boundary for the engine. Every read and write is
// scoped to the owner supplied by the caller; lookups for entities owned by
// another user fail with a NotFound apperr.
type Store interface {
	GetTask(ctx context.Context, ownerID, taskID int) (*model.Task, error)
	ListTasks(ctx context.Context, ownerID int, scheduledDate *time.Time) ([]model.Task, error)
	GetCategory(ctx context.Context, ownerID, categoryID int) (*model.Category, error)
	// TagsByIDs returns the subset of tagIDs owned by ownerID. Missing IDs are
	// not an error here; the caller decides how to report them.
	TagsByIDs(ctx context.Context, ownerID int, tagIDs []int) ([]model.Tag, error)
	SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error)
	TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error)

	// InTx runs fn inside one transaction. A non-nil error from fn rolls back
	// every write fn issued; otherwise the transaction commits.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write surface available inside a transaction, plus the in-transaction
// reads the reconciler needs.
type Tx interface {
	InsertTask(ctx context.Context, t *model.Task) (int, error)
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, ownerID, taskID int) error

	InsertSubTasks(ctx context.Context, taskID int, subs []model.SubTask) error
	UpdateSubTask(ctx context.Context, sub model.SubTask) error
	DeleteSubTasks(ctx context.Context, taskID int, subIDs []int) error
	DeleteAllSubTasks(ctx context.Context, taskID int) error

	InsertTagLinks(ctx context.Context, taskID int, tagIDs []int) error
	DeleteTagLinks(ctx context.Context, taskID int, tagIDs []int) error
	DeleteAllTagLinks(ctx context.Context, taskID int) error

	SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error)
	TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error)
}

// Publisher emits domain events after a successful commit. Publishing is
// best-effort and never affects the outcome of an operation.
type Publisher interface {
	Publish(routingKey string, payload any) error
}
