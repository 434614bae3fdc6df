package mq

const (
	RoutingKeyTaskCreated = "task.created"
	RoutingKeyTaskUpdated = "task.updated"
	RoutingKeyTaskDeleted = "task.deleted"
)

type TaskCreatedPayload struct {
	TaskID        int    `json:"task_id"`
	UserID        int    `json:"user_id"`
	Title         string `json:"title"`
	ScheduledDate string `json:"scheduled_date"` // YYYY-MM-DD format
}

type TaskUpdatedPayload struct {
	TaskID int `json:"task_id"`
	UserID int `json:"user_id"`
}

type TaskDeletedPayload struct {
	TaskID int `json:"task_id"`
	UserID int `json:"user_id"`
}
