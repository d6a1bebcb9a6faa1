package replica

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"prism-sync/channel"
	"prism-sync/domain"
	"prism-sync/store"
)

var errNotStubbed = errors.New("not stubbed")

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	listProjects       func() ([]domain.Project, error)
	getProject         func(id string) (domain.Project, error)
	createProject      func(domain.ProjectDraft) (domain.Project, error)
	updateProject      func(id string, d domain.ProjectDraft) (domain.Project, error)
	deleteProject      func(id string) (domain.Ack, error)
	findCollaborator   func(email string) (domain.Collaborator, error)
	addCollaborator    func(projectID, email string) (domain.Ack, error)
	removeCollaborator func(projectID, collaboratorID string) (domain.Ack, error)
	createTask         func(domain.TaskDraft) (domain.Task, error)
	updateTask         func(id string, d domain.TaskDraft) (domain.Task, error)
	deleteTask         func(id string) (domain.Ack, error)
	toggleTask         func(id string) (domain.Task, error)
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) ListProjects(context.Context) ([]domain.Project, error) {
	f.record("ListProjects")
	if f.listProjects == nil {
		return nil, errNotStubbed
	}
	return f.listProjects()
}

func (f *fakeAPI) GetProject(_ context.Context, id string) (domain.Project, error) {
	f.record("GetProject")
	if f.getProject == nil {
		return domain.Project{}, errNotStubbed
	}
	return f.getProject(id)
}

func (f *fakeAPI) CreateProject(_ context.Context, d domain.ProjectDraft) (domain.Project, error) {
	f.record("CreateProject")
	if f.createProject == nil {
		return domain.Project{}, errNotStubbed
	}
	return f.createProject(d)
}

func (f *fakeAPI) UpdateProject(_ context.Context, id string, d domain.ProjectDraft) (domain.Project, error) {
	f.record("UpdateProject")
	if f.updateProject == nil {
		return domain.Project{}, errNotStubbed
	}
	return f.updateProject(id, d)
}

func (f *fakeAPI) DeleteProject(_ context.Context, id string) (domain.Ack, error) {
	f.record("DeleteProject")
	if f.deleteProject == nil {
		return domain.Ack{}, errNotStubbed
	}
	return f.deleteProject(id)
}

func (f *fakeAPI) FindCollaborator(_ context.Context, email string) (domain.Collaborator, error) {
	f.record("FindCollaborator")
	if f.findCollaborator == nil {
		return domain.Collaborator{}, errNotStubbed
	}
	return f.findCollaborator(email)
}

func (f *fakeAPI) AddCollaborator(_ context.Context, projectID, email string) (domain.Ack, error) {
	f.record("AddCollaborator")
	if f.addCollaborator == nil {
		return domain.Ack{}, errNotStubbed
	}
	return f.addCollaborator(projectID, email)
}

func (f *fakeAPI) RemoveCollaborator(_ context.Context, projectID, collaboratorID string) (domain.Ack, error) {
	f.record("RemoveCollaborator")
	if f.removeCollaborator == nil {
		return domain.Ack{}, errNotStubbed
	}
	return f.removeCollaborator(projectID, collaboratorID)
}

func (f *fakeAPI) CreateTask(_ context.Context, d domain.TaskDraft) (domain.Task, error) {
	f.record("CreateTask")
	if f.createTask == nil {
		return domain.Task{}, errNotStubbed
	}
	return f.createTask(d)
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, d domain.TaskDraft) (domain.Task, error) {
	f.record("UpdateTask")
	if f.updateTask == nil {
		return domain.Task{}, errNotStubbed
	}
	return f.updateTask(id, d)
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) (domain.Ack, error) {
	f.record("DeleteTask")
	if f.deleteTask == nil {
		return domain.Ack{}, errNotStubbed
	}
	return f.deleteTask(id)
}

func (f *fakeAPI) ToggleTask(_ context.Context, id string) (domain.Task, error) {
	f.record("ToggleTask")
	if f.toggleTask == nil {
		return domain.Task{}, errNotStubbed
	}
	return f.toggleTask(id)
}

type emitted struct {
	event   string
	payload any
}

type fakeChannel struct {
	mu       sync.Mutex
	emits    []emitted
	handlers map[string]channel.Handler
	closed   int
	err      error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: map[string]channel.Handler{}}
}

func (c *fakeChannel) Emit(_ context.Context, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.emits = append(c.emits, emitted{event: event, payload: payload})
	return nil
}

func (c *fakeChannel) On(event string, h channel.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeChannel) sent() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.emits...)
}

func (c *fakeChannel) deliver(t *testing.T, event string, v any) {
	t.Helper()
	data, err := sonic.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	c.mu.Lock()
	h := c.handlers[event]
	c.mu.Unlock()
	if h == nil {
		t.Fatalf("no handler registered for %s", event)
	}
	h(data)
}

// seeded returns a store where p1 is focused and listed with one pending task.
func seeded() *store.Store {
	st := store.New()
	t1 := domain.Task{ID: "t1", Name: "draft", State: domain.TaskPending, Project: "p1"}
	p1 := domain.Project{ID: "p1", Name: "Apollo", Tasks: []domain.Task{t1}}
	st.ReplaceProjects([]domain.Project{p1, {ID: "p2", Name: "Gemini"}})
	st.ReplaceFocusedProject(p1)
	return st
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func taskIn(tasks []domain.Task, id string) (domain.Task, int) {
	var found domain.Task
	n := 0
	for _, t := range tasks {
		if t.ID == id {
			found = t
			n++
		}
	}
	return found, n
}
