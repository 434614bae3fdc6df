package model

import "fmt"

// Priority is stored as a single letter: L / M / H.
type Priority string

const (
	PriorityLow    Priority = "L"
	PriorityMedium Priority = "M"
	PriorityHigh   Priority = "H"
)

// ParsePriority validates a priority letter. An empty value defaults to
// medium, matching the input schema default.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("invalid priority level: %q", s)
	}
}
