package replica

import (
	"context"
	"fmt"
	"time"

	"prism-sync/domain"
	"prism-sync/store"
)

// TaskCommand is either CreateTask or EditTask.
type TaskCommand interface {
	taskCommand()
}

// CreateTask asks for a new task built from Draft.
type CreateTask struct {
	Draft domain.TaskDraft
}

// EditTask asks for the task with ID to be rewritten from Draft.
type EditTask struct {
	ID    string
	Draft domain.TaskDraft
}

func (CreateTask) taskCommand() {}
func (EditTask) taskCommand()   {}

// SubmitTask dispatches cmd to CreateTask or EditTask.
func (s *Synchronizer) SubmitTask(ctx context.Context, cmd TaskCommand) error {
	switch c := cmd.(type) {
	case CreateTask:
		return s.CreateTask(ctx, c.Draft)
	case EditTask:
		return s.EditTask(ctx, c.ID, c.Draft)
	default:
		return fmt.Errorf("unknown task command %T", cmd)
	}
}

// CreateTask creates a task in draft.Project, merges it into both views of
// the store and announces it to the other clients of the project.
func (s *Synchronizer) CreateTask(ctx context.Context, draft domain.TaskDraft) (err error) {
	ctx, m := s.startMutation(ctx, "task.create")
	defer func() { m.Finish(err) }()

	if draft.Project == "" {
		m.SetErrorStage("validate")
		s.st.ReplaceAlert(domain.Failure(msgNoProject))
		return ErrNoProject
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	task, err := s.api.CreateTask(ctx, draft)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}
	task = normalizeTask(task, draft.Project.String())

	applied := s.apply(func() bool {
		if !s.seq.admit(taskKey(task.ID), seq) {
			return false
		}
		snap := s.st.Read()
		s.st.ReplaceProjects(domain.MapProjectTasks(snap.Projects, task.Project.String(), func(ts []domain.Task) []domain.Task {
			return domain.UpsertTask(ts, task)
		}))
		if snap.Project.ID == task.Project.String() {
			p := snap.Project
			p.Tasks = domain.UpsertTask(p.Tasks, task)
			s.st.ReplaceFocusedProject(p)
		}
		return true
	})
	m.SetApplied(applied)
	s.alert(seq, domain.Success(msgTaskCreated))
	if applied {
		s.broadcast(ctx, m, domain.NewTask, task)
	}
	return nil
}

// EditTask rewrites the task with id from draft.
func (s *Synchronizer) EditTask(ctx context.Context, id string, draft domain.TaskDraft) (err error) {
	ctx, m := s.startMutation(ctx, "task.edit")
	defer func() { m.Finish(err) }()

	if id == "" {
		m.SetErrorStage("validate")
		return ErrMissingID
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	task, err := s.api.UpdateTask(ctx, id, draft)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}
	fallback := draft.Project.String()
	if fallback == "" {
		fallback = s.st.Read().Project.ID
	}
	task = normalizeTask(task, fallback)

	applied := s.apply(func() bool {
		return s.replaceTask(task, seq)
	})
	m.SetApplied(applied)
	s.alert(seq, domain.Success(msgTaskUpdated))
	if applied {
		s.broadcast(ctx, m, domain.EditTask, task)
	}
	return nil
}

// CompleteTask toggles the completion state of the task with id.
func (s *Synchronizer) CompleteTask(ctx context.Context, id string) (err error) {
	ctx, m := s.startMutation(ctx, "task.complete")
	defer func() { m.Finish(err) }()

	if id == "" {
		m.SetErrorStage("validate")
		return ErrMissingID
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	task, err := s.api.ToggleTask(ctx, id)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}
	task = normalizeTask(task, owningProject(s.st.Read(), id))

	applied := s.apply(func() bool {
		return s.replaceTask(task, seq)
	})
	m.SetApplied(applied)
	s.alert(seq, domain.Success(msgTaskToggled))
	if applied {
		s.broadcast(ctx, m, domain.CompleteTask, task)
	}
	return nil
}

// DeleteTask deletes the selected task, closes the confirmation and clears
// the selection.
func (s *Synchronizer) DeleteTask(ctx context.Context) (err error) {
	ctx, m := s.startMutation(ctx, "task.delete")
	defer func() { m.Finish(err) }()

	snap := s.st.Read()
	if snap.Task.ID == "" {
		m.SetErrorStage("validate")
		return ErrNoSelection
	}
	task := normalizeTask(snap.Task, owningProject(snap, snap.Task.ID))

	seq := s.seq.begin()
	apiStart := time.Now()
	_, err = s.api.DeleteTask(ctx, task.ID)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}

	applied := s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		s.seq.bury(taskKey(task.ID))
		snap := s.st.Read()
		s.st.ReplaceProjects(mapTaskHolders(snap.Projects, task.ID, func(ts []domain.Task) []domain.Task {
			return domain.RemoveTask(ts, task.ID)
		}))
		if domain.ContainsTask(snap.Project.Tasks, task.ID) {
			p := snap.Project
			p.Tasks = domain.RemoveTask(p.Tasks, task.ID)
			s.st.ReplaceFocusedProject(p)
		}
		s.st.ReplaceFocusedTask(domain.Task{})
		s.st.SetFlag(store.TaskDeleteConfirm, false)
		return true
	})
	m.SetApplied(applied)
	if !applied {
		return nil
	}
	s.alertThenClear(seq, domain.Success(msgTaskDeleted))
	s.broadcast(ctx, m, domain.DeleteTask, task)
	return nil
}

// replaceTask merges task into every view that holds it. Callers hold applyMu.
func (s *Synchronizer) replaceTask(task domain.Task, seq uint64) bool {
	if !s.seq.admit(taskKey(task.ID), seq) {
		return false
	}
	snap := s.st.Read()
	s.st.ReplaceProjects(mapTaskHolders(snap.Projects, task.ID, func(ts []domain.Task) []domain.Task {
		return domain.ReplaceTask(ts, task)
	}))
	if domain.ContainsTask(snap.Project.Tasks, task.ID) {
		p := snap.Project
		p.Tasks = domain.ReplaceTask(p.Tasks, task)
		s.st.ReplaceFocusedProject(p)
	}
	return true
}

// mapTaskHolders applies fn to the task list of every project holding id.
func mapTaskHolders(projects []domain.Project, id string, fn func([]domain.Task) []domain.Task) []domain.Project {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		if domain.ContainsTask(p.Tasks, id) {
			p = p.Clone()
			p.Tasks = fn(p.Tasks)
		}
		out[i] = p
	}
	return out
}

// owningProject finds the project a task belongs to in snap, preferring the
// focused project.
func owningProject(snap store.Snapshot, taskID string) string {
	for _, t := range snap.Project.Tasks {
		if t.ID == taskID {
			if t.Project != "" {
				return t.Project.String()
			}
			return snap.Project.ID
		}
	}
	for _, p := range snap.Projects {
		if domain.ContainsTask(p.Tasks, taskID) {
			return p.ID
		}
	}
	return snap.Project.ID
}

func normalizeTask(t domain.Task, project string) domain.Task {
	if t.Project == "" {
		t.Project = domain.TaskRef(project)
	}
	if t.State == "" {
		t.State = domain.TaskPending
	}
	return t
}
