package task

import "time"

// Fields carries the full scalar field set of a task for create and replace.
// A nil ScheduledDate means "default to today"; the applied default is
// observable in the returned aggregate.
type Fields struct {
	Title         string
	Description   string
	CategoryID    *int
	PriorityLevel string
	ScheduledDate *time.Time
	DeadLine      *time.Time
	StartTime     *string
	EndTime       *string
	IsCompleted   bool
}

// SubTaskInput describes one desired subtask. A nil ID means the subtask is
// not yet persisted and will be created; a known ID keeps the existing row
// and applies title/completion updates to it.
type SubTaskInput struct {
	ID          *int
	Title       string
	IsCompleted bool
}

// Patch is the closed set of fields a partial update may touch. Nil means
// "leave unchanged". Fields absent from this struct cannot be patched.
type Patch struct {
	Title         *string
	Description   *string
	CategoryID    *int
	PriorityLevel *string
	ScheduledDate *time.Time
	DeadLine      *time.Time
	StartTime     *string
	EndTime       *string
	IsCompleted   *bool
}

// Aggregate is the immutable external view of a task with its children,
// built from persisted state after any write has committed.
type Aggregate struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      *int          `json:"category"`
	PriorityLevel string        `json:"priority_level"`
	ScheduledDate string        `json:"scheduled_date"`
	DeadLine      *string       `json:"dead_line"`
	StartTime     *string       `json:"start_time"`
	EndTime       *string       `json:"end_time"`
	IsCompleted   bool          `json:"is_completed"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	SubTasks      []SubTaskView `json:"subTasks"`
	Tags          []TagView     `json:"tags"`
}

type SubTaskView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

type TagView struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
