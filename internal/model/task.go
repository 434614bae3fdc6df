package model

import "time"

type Task struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	CategoryID    *int       `json:"category"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	PriorityLevel Priority   `json:"priority_level"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	DeadLine      *time.Time `json:"dead_line"`
	StartTime     *string    `json:"start_time"`
	EndTime       *string    `json:"end_time"`
	IsCompleted   bool       `json:"is_completed"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SubTask struct {
	ID          int    `json:"id"`
	TaskID      int    `json:"task_id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}
