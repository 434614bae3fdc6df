package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
)

const timeOfDayLayout = "15:04"

// checkTitle enforces a non-empty title after trimming and returns the
// trimmed value.
func checkTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", apperr.New(apperr.Validation, "Title cannot be empty")
	}
	return trimmed, nil
}

// normalizeScheduledDate applies the explicit "a task always has a scheduled
// date" default. The chosen date is returned so callers observe the decision
// instead of having it applied as a hidden side effect.
func normalizeScheduledDate(scheduled *time.Time, now func() time.Time) time.Time {
	if scheduled != nil {
		return dateOnly(*scheduled)
	}
	return dateOnly(now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func checkDeadline(scheduledDate time.Time, deadline *time.Time) error {
	if deadline == nil {
		return nil
	}
	if dateOnly(*deadline).Before(scheduledDate) {
		return apperr.New(apperr.Validation, "Deadline cannot be before scheduled date")
	}
	return nil
}

func checkTimeWindow(start, end *string) error {
	startT, err := parseTimeOfDay(start)
	if err != nil {
		return err
	}
	endT, err := parseTimeOfDay(end)
	if err != nil {
		return err
	}
	if start != nil && end != nil && !endT.After(startT) {
		return apperr.New(apperr.Validation, "End time must be after start time")
	}
	return nil
}

func parseTimeOfDay(s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeOfDayLayout, *s)
	if err != nil {
		return time.Time{}, apperr.New(apperr.Validation, "Invalid time of day: %q", *s)
	}
	return t, nil
}

// resolveCategory confirms the referenced category belongs to ownerID.
func (s *Service) resolveCategory(ctx context.Context, ownerID int, categoryID *int) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, ownerID, *categoryID); err != nil {
		return err
	}
	return nil
}

// resolveTags collapses duplicate tag IDs and confirms each one belongs to
// ownerID. When any are missing, the error names exactly the missing subset.
func (s *Service) resolveTags(ctx context.Context, ownerID int, tagIDs []int) ([]int, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	unique := make([]int, 0, len(tagIDs))
	seen := make(map[int]bool, len(tagIDs))
	for _, id := range tagIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	owned, err := s.store.TagsByIDs(ctx, ownerID, unique)
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[int]bool, len(owned))
	for _, t := range owned {
		ownedSet[t.ID] = true
	}

	var missing []int
	for _, id := range unique {
		if !ownedSet[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return nil, apperr.New(apperr.NotFound, "Invalid tag IDs: %s", formatIDs(missing))
	}
	return unique, nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// normalizeFields validates and canonicalizes the scalar field set shared by
// create and replace. The returned Fields always carry a scheduled date.
func (s *Service) normalizeFields(f Fields) (Fields, error) {
	title, err := checkTitle(f.Title)
	if err != nil {
		return Fields{}, err
	}
	f.Title = title

	priority, err := model.ParsePriority(f.PriorityLevel)
	if err != nil {
		return Fields{}, apperr.Wrap(apperr.Validation, err, "Invalid priority level")
	}
	f.PriorityLevel = string(priority)

	scheduled := normalizeScheduledDate(f.ScheduledDate, s.now)
	f.ScheduledDate = &scheduled

	if err := checkDeadline(scheduled, f.DeadLine); err != nil {
		return Fields{}, err
	}
	if err := checkTimeWindow(f.StartTime, f.EndTime); err != nil {
		return Fields{}, err
	}
	return f, nil
}
