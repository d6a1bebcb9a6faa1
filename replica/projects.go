package replica

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-sync/apiclient"
	"prism-sync/domain"
)

// ProjectCommand is either CreateProject or EditProject.
type ProjectCommand interface {
	projectCommand()
}

// CreateProject asks for a new project built from Draft.
type CreateProject struct {
	Draft domain.ProjectDraft
}

// EditProject asks for the project with ID to be rewritten from Draft.
type EditProject struct {
	ID    string
	Draft domain.ProjectDraft
}

func (CreateProject) projectCommand() {}
func (EditProject) projectCommand()   {}

// FetchProjects loads the caller's projects into the store.
func (s *Synchronizer) FetchProjects(ctx context.Context) error {
	seq := s.seq.begin()
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	s.apply(func() bool {
		if !s.seq.admit("projects", seq) {
			return false
		}
		s.st.ReplaceProjects(projects)
		return true
	})
	return nil
}

// FetchProject loads one project and makes it the focused project. On
// failure the error is shown briefly and the user is sent back to the
// projects listing.
func (s *Synchronizer) FetchProject(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	s.st.SetLoading(true)
	defer s.st.SetLoading(false)
	s.st.ReplaceAlert(domain.Alert{})

	seq := s.seq.begin()
	project, err := s.api.GetProject(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("project", id).Warn("failed to load project")
		if s.alertThenClear(seq, domain.Failure(apiclient.Message(err))) {
			s.nav.ToProjects()
		}
		return err
	}
	for i := range project.Tasks {
		project.Tasks[i] = normalizeTask(project.Tasks[i], project.ID)
	}
	s.apply(func() bool {
		if !s.seq.admit(focusKey, seq) || s.seq.isBuried(projectKey(project.ID)) {
			return false
		}
		s.st.ReplaceFocusedProject(project)
		return true
	})
	return nil
}

// FocusProject loads a project and joins its room on the broadcast channel
// so edits made by other clients start arriving. The room is not joined when
// the loaded project was discarded as stale.
func (s *Synchronizer) FocusProject(ctx context.Context, id string) error {
	if err := s.FetchProject(ctx, id); err != nil {
		return err
	}
	if s.ch == nil || s.st.Read().Project.ID != id {
		return nil
	}
	if err := s.ch.Emit(ctx, domain.OpenProject, id); err != nil {
		s.logger.WithError(err).WithField("project", id).Warn("failed to join project room")
	}
	return nil
}

// LeaveProject clears the focused project. Responses for fetches issued
// before the call are ignored.
func (s *Synchronizer) LeaveProject() {
	seq := s.seq.begin()
	s.apply(func() bool {
		s.seq.admit(focusKey, seq)
		s.st.ReplaceFocusedProject(domain.Project{})
		return true
	})
}

// SubmitProject dispatches cmd to CreateProject or EditProject.
func (s *Synchronizer) SubmitProject(ctx context.Context, cmd ProjectCommand) error {
	switch c := cmd.(type) {
	case CreateProject:
		return s.CreateProject(ctx, c.Draft)
	case EditProject:
		return s.EditProject(ctx, c.ID, c.Draft)
	default:
		return fmt.Errorf("unknown project command %T", cmd)
	}
}

// CreateProject creates a project and adds it to the projects collection.
func (s *Synchronizer) CreateProject(ctx context.Context, draft domain.ProjectDraft) (err error) {
	ctx, m := s.startMutation(ctx, "project.create")
	defer func() { m.Finish(err) }()

	seq := s.seq.begin()
	apiStart := time.Now()
	project, err := s.api.CreateProject(ctx, draft)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}

	applied := s.apply(func() bool {
		if !s.seq.admit(projectKey(project.ID), seq) {
			return false
		}
		snap := s.st.Read()
		projects := domain.RemoveProject(snap.Projects, project.ID)
		s.st.ReplaceProjects(append(projects, project.Clone()))
		return true
	})
	m.SetApplied(applied)
	s.alert(seq, domain.Success(msgProjectCreated))
	return nil
}

// EditProject rewrites the project with id from draft.
func (s *Synchronizer) EditProject(ctx context.Context, id string, draft domain.ProjectDraft) (err error) {
	ctx, m := s.startMutation(ctx, "project.edit")
	defer func() { m.Finish(err) }()

	if id == "" {
		m.SetErrorStage("validate")
		return ErrMissingID
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	project, err := s.api.UpdateProject(ctx, id, draft)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}
	if project.ID == "" {
		project.ID = id
	}

	applied := s.apply(func() bool {
		if !s.seq.admit(projectKey(project.ID), seq) {
			return false
		}
		snap := s.st.Read()
		s.st.ReplaceProjects(domain.ReplaceProject(snap.Projects, project))
		if snap.Project.ID == project.ID {
			p := snap.Project
			p.Name = project.Name
			p.Description = project.Description
			p.Client = project.Client
			s.st.ReplaceFocusedProject(p)
		}
		return true
	})
	m.SetApplied(applied)
	s.alert(seq, domain.Success(msgProjectUpdated))
	return nil
}

// DeleteProject deletes the project with id and drops it from every view.
func (s *Synchronizer) DeleteProject(ctx context.Context, id string) (err error) {
	ctx, m := s.startMutation(ctx, "project.delete")
	defer func() { m.Finish(err) }()

	if id == "" {
		m.SetErrorStage("validate")
		return ErrMissingID
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	ack, err := s.api.DeleteProject(ctx, id)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}

	applied := s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		s.seq.bury(projectKey(id))
		snap := s.st.Read()
		s.st.ReplaceProjects(domain.RemoveProject(snap.Projects, id))
		if snap.Project.ID == id {
			s.st.ReplaceFocusedProject(domain.Project{})
		}
		return true
	})
	m.SetApplied(applied)
	if applied {
		s.alertThenClear(seq, domain.Success(ack.Message))
	}
	return nil
}

// failed surfaces err as an error alert and leaves the rest of the store untouched.
func (s *Synchronizer) failed(m *mutationMetrics, seq uint64, stage string, err error) error {
	m.SetErrorStage(stage)
	s.alert(seq, domain.Failure(apiclient.Message(err)))
	return err
}

// broadcast announces a task change. Failures are logged; the store already
// reflects the change.
func (s *Synchronizer) broadcast(ctx context.Context, m *mutationMetrics, event string, task domain.Task) {
	if s.ch == nil {
		return
	}
	if err := s.ch.Emit(ctx, event, task); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event": event,
			"task":  task.ID,
		}).Warn("failed to broadcast task change")
		return
	}
	m.SetBroadcast(true)
}
