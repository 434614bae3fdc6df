package task

import (
	"context"
	"sort"
	"time"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
)

// fakeStore is an in-memory Store whose InTx stages every write on a deep
// copy and swaps it in only on success, so rollback behavior is real.
type fakeStore struct {
	state fakeState

	// failure injection
	failInsertSubTasks error
	failInsertTagLinks error

	ops opCounts
}

type fakeState struct {
	tasks      map[int]model.Task
	subTasks   map[int]model.SubTask
	tags       map[int]model.Tag
	categories map[int]model.Category
	links      map[int]map[int]bool // taskID -> set of tagIDs
	nextTask   int
	nextSub    int
}

type opCounts struct {
	insertSubTasks int
	updateSubTasks int
	deleteSubTasks int
	insertTagLinks int
	deleteTagLinks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: fakeState{
		tasks:      map[int]model.Task{},
		subTasks:   map[int]model.SubTask{},
		tags:       map[int]model.Tag{},
		categories: map[int]model.Category{},
		links:      map[int]map[int]bool{},
		nextTask:   1,
		nextSub:    1,
	}}
}

func (st fakeState) clone() fakeState {
	out := fakeState{
		tasks:      make(map[int]model.Task, len(st.tasks)),
		subTasks:   make(map[int]model.SubTask, len(st.subTasks)),
		tags:       make(map[int]model.Tag, len(st.tags)),
		categories: make(map[int]model.Category, len(st.categories)),
		links:      make(map[int]map[int]bool, len(st.links)),
		nextTask:   st.nextTask,
		nextSub:    st.nextSub,
	}
	for k, v := range st.tasks {
		out.tasks[k] = v
	}
	for k, v := range st.subTasks {
		out.subTasks[k] = v
	}
	for k, v := range st.tags {
		out.tags[k] = v
	}
	for k, v := range st.categories {
		out.categories[k] = v
	}
	for k, v := range st.links {
		set := make(map[int]bool, len(v))
		for id := range v {
			set[id] = true
		}
		out.links[k] = set
	}
	return out
}

func (f *fakeStore) GetTask(ctx context.Context, ownerID, taskID int) (*model.Task, error) {
	t, ok := f.state.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, apperr.New(apperr.NotFound, "Invalid Task ID: %d", taskID)
	}
	return &t, nil
}

func (f *fakeStore) ListTasks(ctx context.Context, ownerID int, scheduledDate *time.Time) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.state.tasks {
		if t.UserID != ownerID {
			continue
		}
		if scheduledDate != nil && !t.ScheduledDate.Equal(*scheduledDate) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetCategory(ctx context.Context, ownerID, categoryID int) (*model.Category, error) {
	c, ok := f.state.categories[categoryID]
	if !ok || c.UserID != ownerID {
		return nil, apperr.New(apperr.NotFound, "Invalid Category ID: %d", categoryID)
	}
	return &c, nil
}

func (f *fakeStore) TagsByIDs(ctx context.Context, ownerID int, tagIDs []int) ([]model.Tag, error) {
	var out []model.Tag
	for _, id := range tagIDs {
		if t, ok := f.state.tags[id]; ok && t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error) {
	return subTasksOf(f.state, taskID), nil
}

func (f *fakeStore) TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error) {
	return tagsOf(f.state, taskID), nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	staged := f.state.clone()
	if err := fn(&fakeTx{store: f, state: &staged}); err != nil {
		return err
	}
	f.state = staged
	return nil
}

type fakeTx struct {
	store *fakeStore
	state *fakeState
}

func (t *fakeTx) InsertTask(ctx context.Context, task *model.Task) (int, error) {
	id := t.state.nextTask
	t.state.nextTask++
	task.ID = id
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	t.state.tasks[id] = *task
	return id, nil
}

func (t *fakeTx) UpdateTask(ctx context.Context, task *model.Task) error {
	existing, ok := t.state.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return apperr.New(apperr.NotFound, "Invalid Task ID: %d", task.ID)
	}
	task.UpdatedAt = time.Now()
	t.state.tasks[task.ID] = *task
	return nil
}

func (t *fakeTx) DeleteTask(ctx context.Context, ownerID, taskID int) error {
	existing, ok := t.state.tasks[taskID]
	if !ok || existing.UserID != ownerID {
		return apperr.New(apperr.NotFound, "Invalid Task ID: %d", taskID)
	}
	delete(t.state.tasks, taskID)
	return nil
}

func (t *fakeTx) InsertSubTasks(ctx context.Context, taskID int, subs []model.SubTask) error {
	if t.store.failInsertSubTasks != nil {
		return t.store.failInsertSubTasks
	}
	t.store.ops.insertSubTasks += len(subs)
	for _, sub := range subs {
		sub.ID = t.state.nextSub
		t.state.nextSub++
		sub.TaskID = taskID
		t.state.subTasks[sub.ID] = sub
	}
	return nil
}

func (t *fakeTx) UpdateSubTask(ctx context.Context, sub model.SubTask) error {
	t.store.ops.updateSubTasks++
	t.state.subTasks[sub.ID] = sub
	return nil
}

func (t *fakeTx) DeleteSubTasks(ctx context.Context, taskID int, subIDs []int) error {
	t.store.ops.deleteSubTasks += len(subIDs)
	for _, id := range subIDs {
		delete(t.state.subTasks, id)
	}
	return nil
}

func (t *fakeTx) DeleteAllSubTasks(ctx context.Context, taskID int) error {
	for id, sub := range t.state.subTasks {
		if sub.TaskID == taskID {
			delete(t.state.subTasks, id)
		}
	}
	return nil
}

func (t *fakeTx) InsertTagLinks(ctx context.Context, taskID int, tagIDs []int) error {
	if t.store.failInsertTagLinks != nil {
		return t.store.failInsertTagLinks
	}
	t.store.ops.insertTagLinks += len(tagIDs)
	set := t.state.links[taskID]
	if set == nil {
		set = map[int]bool{}
		t.state.links[taskID] = set
	}
	for _, id := range tagIDs {
		if set[id] {
			return apperr.New(apperr.Conflict, "Duplicate entry violates a uniqueness constraint")
		}
		set[id] = true
	}
	return nil
}

func (t *fakeTx) DeleteTagLinks(ctx context.Context, taskID int, tagIDs []int) error {
	t.store.ops.deleteTagLinks += len(tagIDs)
	for _, id := range tagIDs {
		delete(t.state.links[taskID], id)
	}
	return nil
}

func (t *fakeTx) DeleteAllTagLinks(ctx context.Context, taskID int) error {
	delete(t.state.links, taskID)
	return nil
}

func (t *fakeTx) SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error) {
	return subTasksOf(*t.state, taskID), nil
}

func (t *fakeTx) TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error) {
	return tagsOf(*t.state, taskID), nil
}

func subTasksOf(st fakeState, taskID int) []model.SubTask {
	out := []model.SubTask{}
	for _, sub := range st.subTasks {
		if sub.TaskID == taskID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func tagsOf(st fakeState, taskID int) []model.Tag {
	out := []model.Tag{}
	for id := range st.links[taskID] {
		if tag, ok := st.tags[id]; ok {
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
