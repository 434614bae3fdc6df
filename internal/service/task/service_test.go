package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newTestService(f *fakeStore) *Service {
	svc := NewService(f, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedOwnerData(f *fakeStore) {
	f.state.categories[1] = model.Category{ID: 1, UserID: 1, Title: "Work"}
	f.state.tags[1] = model.Tag{ID: 1, UserID: 1, Title: "urgent"}
	f.state.tags[2] = model.Tag{ID: 2, UserID: 1, Title: "home"}
	f.state.tags[3] = model.Tag{ID: 3, UserID: 1, Title: "errand"}
	f.state.tags[99] = model.Tag{ID: 99, UserID: 2, Title: "other-owner"}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func mustCreateFull(t *testing.T, svc *Service, tagIDs []int, subs []SubTaskInput) *Aggregate {
	t.Helper()
	agg, err := svc.CreateFull(context.Background(), 1, Fields{
		Title:         "Plan sprint",
		ScheduledDate: datePtr(2024, 1, 20),
	}, tagIDs, subs)
	if err != nil {
		t.Fatalf("CreateFull failed: %v", err)
	}
	return agg
}

func tagIDsOf(agg *Aggregate) []int {
	ids := make([]int, len(agg.Tags))
	for i, tag := range agg.Tags {
		ids[i] = tag.ID
	}
	return ids
}

func TestCreateDefaultsScheduledDate(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg, err := svc.Create(context.Background(), 1, Fields{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if agg.ScheduledDate != "2024-01-15" {
		t.Fatalf("scheduled date should default to today, got %q", agg.ScheduledDate)
	}
	if agg.Title != "Buy milk" {
		t.Fatalf("title should be trimmed, got %q", agg.Title)
	}
	if agg.PriorityLevel != "M" {
		t.Fatalf("priority should default to medium, got %q", agg.PriorityLevel)
	}
	if len(agg.SubTasks) != 0 || len(agg.Tags) != 0 {
		t.Fatalf("plain create should produce no children")
	}
}

func TestCreateFullAggregate(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, []SubTaskInput{
		{Title: "outline"},
		{Title: "estimate", IsCompleted: true},
	})

	if len(agg.Tags) != 2 || agg.Tags[0].ID != 1 || agg.Tags[1].ID != 2 {
		t.Fatalf("unexpected tags: %+v", agg.Tags)
	}
	if len(agg.SubTasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(agg.SubTasks))
	}
	if agg.SubTasks[0].ID == 0 || agg.SubTasks[1].ID == 0 {
		t.Fatalf("subtasks should carry persisted identifiers")
	}
}

func TestCreateEmptyTitle(t *testing.T) {
	f := newFakeStore()
	svc := newTestService(f)

	_, err := svc.Create(context.Background(), 1, Fields{Title: "   "})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if err.Error() != "Title cannot be empty" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCreateInvalidCategory(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	_, err := svc.Create(context.Background(), 1, Fields{Title: "x", CategoryID: intPtr(42)})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if len(f.state.tasks) != 0 {
		t.Fatalf("validation failure must abort before any write")
	}
}

func TestTagSetConvergence(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, nil)

	// Desired set carries duplicates and arbitrary order.
	desired := []int{3, 2, 3, 2}
	got, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Plan sprint",
		ScheduledDate: datePtr(2024, 1, 20),
	}, &desired, nil)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	ids := tagIDsOf(got)
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 3 {
		t.Fatalf("association set should converge to exactly {2, 3}, got %v", ids)
	}
}

func TestKeyedSubTaskUpsert(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, nil, []SubTaskInput{
		{Title: "a"},
		{Title: "b"},
	})
	idA := agg.SubTasks[0].ID
	idB := agg.SubTasks[1].ID

	desired := []SubTaskInput{
		{ID: &idA, Title: "a2"},
		{Title: "c"},
	}
	got, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Plan sprint",
		ScheduledDate: datePtr(2024, 1, 20),
	}, nil, &desired)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if len(got.SubTasks) != 2 {
		t.Fatalf("expected exactly 2 subtasks, got %+v", got.SubTasks)
	}
	if got.SubTasks[0].ID != idA || got.SubTasks[0].Title != "a2" {
		t.Fatalf("subtask %d should keep its identity with updated title, got %+v", idA, got.SubTasks[0])
	}
	if got.SubTasks[1].Title != "c" || got.SubTasks[1].ID == idB {
		t.Fatalf("subtask 'c' should be newly created, got %+v", got.SubTasks[1])
	}
	for _, sub := range got.SubTasks {
		if sub.ID == idB {
			t.Fatalf("subtask %d should be deleted", idB)
		}
	}
}

func TestReplaceIdempotence(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, []SubTaskInput{{Title: "a"}, {Title: "b"}})
	idA := agg.SubTasks[0].ID
	idB := agg.SubTasks[1].ID

	desired := []SubTaskInput{
		{ID: &idA, Title: "a", IsCompleted: false},
		{ID: &idB, Title: "b", IsCompleted: false},
	}
	tags := []int{1, 2}
	fields := Fields{Title: "Plan sprint", ScheduledDate: datePtr(2024, 1, 20)}

	first, err := svc.Replace(context.Background(), 1, agg.ID, fields, &tags, &desired)
	if err != nil {
		t.Fatalf("first Replace failed: %v", err)
	}

	f.ops = opCounts{}
	second, err := svc.Replace(context.Background(), 1, agg.ID, fields, &tags, &desired)
	if err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}

	if f.ops.insertSubTasks != 0 || f.ops.deleteSubTasks != 0 ||
		f.ops.insertTagLinks != 0 || f.ops.deleteTagLinks != 0 {
		t.Fatalf("identical desired state must produce no create/delete operations: %+v", f.ops)
	}
	if len(second.SubTasks) != len(first.SubTasks) {
		t.Fatalf("subtask count changed across idempotent replace")
	}
	for i := range second.SubTasks {
		if second.SubTasks[i].ID != first.SubTasks[i].ID || second.SubTasks[i].Title != first.SubTasks[i].Title {
			t.Fatalf("subtask identity or title changed: %+v vs %+v", first.SubTasks[i], second.SubTasks[i])
		}
	}
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1}, nil)

	// Tag 99 belongs to a different owner.
	desired := []int{1, 99}
	_, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Plan sprint",
		ScheduledDate: datePtr(2024, 1, 20),
	}, &desired, nil)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err.Error() != "Invalid tag IDs: 99" {
		t.Fatalf("error should name exactly the missing tag, got %q", err.Error())
	}

	// The aggregate and its valid associations must be unchanged.
	got, err := svc.Get(context.Background(), 1, agg.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ids := tagIDsOf(got); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("existing associations must be untouched, got %v", ids)
	}
}

func TestCrossOwnerTaskIsNotFound(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, nil, nil)

	if _, err := svc.Get(context.Background(), 2, agg.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("cross-owner read must be NotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), 2, agg.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("cross-owner delete must be NotFound, got %v", err)
	}
}

func TestReplaceAtomicity(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1}, []SubTaskInput{{Title: "keep"}})

	// Scalar write and tag reconciliation run before the subtask bulk-create,
	// which is made to fail: everything must roll back.
	f.failInsertSubTasks = errors.New("constraint violation")
	desiredTags := []int{2, 3}
	desiredSubs := []SubTaskInput{{Title: "new one"}, {Title: "new two"}}
	_, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Renamed",
		ScheduledDate: datePtr(2024, 2, 1),
	}, &desiredTags, &desiredSubs)
	if err == nil {
		t.Fatalf("Replace should fail when the subtask bulk-create fails")
	}

	got, err := svc.Get(context.Background(), 1, agg.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Plan sprint" || got.ScheduledDate != "2024-01-20" {
		t.Fatalf("scalar fields must be rolled back, got %+v", got)
	}
	if ids := tagIDsOf(got); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("tag associations must be rolled back, got %v", ids)
	}
	if len(got.SubTasks) != 1 || got.SubTasks[0].Title != "keep" {
		t.Fatalf("subtasks must be rolled back, got %+v", got.SubTasks)
	}
}

func TestCreateFullAtomicity(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	f.failInsertSubTasks = errors.New("constraint violation")
	_, err := svc.CreateFull(context.Background(), 1, Fields{
		Title:         "Doomed",
		ScheduledDate: datePtr(2024, 1, 20),
	}, []int{1}, []SubTaskInput{{Title: "x"}})
	if err == nil {
		t.Fatalf("CreateFull should fail")
	}
	if len(f.state.tasks) != 0 {
		t.Fatalf("no partial task may survive a failed create")
	}
	if len(f.state.links) != 0 {
		t.Fatalf("no partial associations may survive a failed create")
	}
}

func TestReplaceNilCollectionsLeaveChildrenUnchanged(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, []SubTaskInput{{Title: "a"}})

	got, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Renamed",
		ScheduledDate: datePtr(2024, 1, 21),
	}, nil, nil)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("scalars should be assigned, got %q", got.Title)
	}
	if len(got.Tags) != 2 || len(got.SubTasks) != 1 {
		t.Fatalf("absent collections must be left unchanged, got %+v", got)
	}
}

func TestReplaceEmptyCollectionsClearChildren(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, []SubTaskInput{{Title: "a"}})

	emptyTags := []int{}
	emptySubs := []SubTaskInput{}
	got, err := svc.Replace(context.Background(), 1, agg.ID, Fields{
		Title:         "Plan sprint",
		ScheduledDate: datePtr(2024, 1, 20),
	}, &emptyTags, &emptySubs)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if len(got.Tags) != 0 || len(got.SubTasks) != 0 {
		t.Fatalf("present-but-empty collections must replace entirely, got %+v", got)
	}
}

func TestPartialUpdateRevalidatesMergedState(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, nil, nil) // scheduled 2024-01-20

	// Patching only the deadline must be validated against the unchanged
	// scheduled date.
	_, err := svc.PartialUpdate(context.Background(), 1, agg.ID, Patch{
		DeadLine: datePtr(2024, 1, 10),
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if err.Error() != "Deadline cannot be before scheduled date" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	// A consistent patch goes through and leaves unpatched fields alone.
	got, err := svc.PartialUpdate(context.Background(), 1, agg.ID, Patch{
		Title:       strPtr("Patched"),
		IsCompleted: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("PartialUpdate failed: %v", err)
	}
	if got.Title != "Patched" || !got.IsCompleted {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.ScheduledDate != "2024-01-20" {
		t.Fatalf("unpatched fields must be preserved, got %q", got.ScheduledDate)
	}
}

func TestPartialUpdateTimeWindow(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, nil, nil)

	if _, err := svc.PartialUpdate(context.Background(), 1, agg.ID, Patch{
		StartTime: strPtr("10:00"),
		EndTime:   strPtr("09:00"),
	}); err == nil || err.Error() != "End time must be after start time" {
		t.Fatalf("expected time window violation, got %v", err)
	}

	// Setting a start after an already-present end must also fail.
	if _, err := svc.PartialUpdate(context.Background(), 1, agg.ID, Patch{
		StartTime: strPtr("08:00"),
		EndTime:   strPtr("09:00"),
	}); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}
	if _, err := svc.PartialUpdate(context.Background(), 1, agg.ID, Patch{
		StartTime: strPtr("09:30"),
	}); err == nil || err.Error() != "End time must be after start time" {
		t.Fatalf("patched start must be checked against unchanged end, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	agg := mustCreateFull(t, svc, []int{1, 2}, []SubTaskInput{{Title: "a"}, {Title: "b"}})

	if err := svc.Delete(context.Background(), 1, agg.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(f.state.tasks) != 0 || len(f.state.subTasks) != 0 || len(f.state.links) != 0 {
		t.Fatalf("delete must cascade to subtasks and associations")
	}
	if _, err := svc.Get(context.Background(), 1, agg.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("deleted task should be NotFound, got %v", err)
	}
}

func TestListFiltersByScheduledDate(t *testing.T) {
	f := newFakeStore()
	seedOwnerData(f)
	svc := newTestService(f)

	mustCreateFull(t, svc, nil, nil) // 2024-01-20
	if _, err := svc.Create(context.Background(), 1, Fields{
		Title:         "Other day",
		ScheduledDate: datePtr(2024, 1, 21),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := svc.List(context.Background(), 1, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d (err %v)", len(all), err)
	}
	filtered, err := svc.List(context.Background(), 1, datePtr(2024, 1, 21))
	if err != nil || len(filtered) != 1 || filtered[0].Title != "Other day" {
		t.Fatalf("filter by scheduled date failed: %+v (err %v)", filtered, err)
	}
}
