package replica

import (
	"context"
	"time"

	"prism-sync/apiclient"
	"prism-sync/domain"
	"prism-sync/store"
)

// FindCollaborator looks a user up by email and stores the candidate.
func (s *Synchronizer) FindCollaborator(ctx context.Context, email string) error {
	s.st.SetLoading(true)
	defer s.st.SetLoading(false)

	seq := s.seq.begin()
	c, err := s.api.FindCollaborator(ctx, email)
	s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		if err != nil {
			s.st.ReplaceCandidate(domain.Collaborator{})
			s.st.ReplaceAlert(domain.Failure(apiclient.Message(err)))
			return true
		}
		s.st.ReplaceCandidate(c)
		s.st.ReplaceAlert(domain.Alert{})
		return true
	})
	return err
}

// AddCollaborator adds the user with email to the focused project. The
// focused project is not updated locally; it picks the collaborator up on
// its next fetch.
func (s *Synchronizer) AddCollaborator(ctx context.Context, email string) (err error) {
	ctx, m := s.startMutation(ctx, "collaborator.add")
	defer func() { m.Finish(err) }()

	projectID := s.st.Read().Project.ID
	if projectID == "" {
		m.SetErrorStage("validate")
		return ErrNoProject
	}

	seq := s.seq.begin()
	apiStart := time.Now()
	ack, err := s.api.AddCollaborator(ctx, projectID, email)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}
	s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		s.st.ReplaceCandidate(domain.Collaborator{})
		s.st.ReplaceAlert(domain.Success(ack.Message))
		return true
	})
	return nil
}

// RemoveCollaborator removes the selected collaborator from the focused
// project, closes the confirmation and clears the selection.
func (s *Synchronizer) RemoveCollaborator(ctx context.Context) (err error) {
	ctx, m := s.startMutation(ctx, "collaborator.remove")
	defer func() { m.Finish(err) }()

	snap := s.st.Read()
	if snap.Selected.ID == "" {
		m.SetErrorStage("validate")
		return ErrNoSelection
	}
	if snap.Project.ID == "" {
		m.SetErrorStage("validate")
		return ErrNoProject
	}
	projectID, selected := snap.Project.ID, snap.Selected

	seq := s.seq.begin()
	apiStart := time.Now()
	ack, err := s.api.RemoveCollaborator(ctx, projectID, selected.ID)
	m.ObserveAPI(time.Since(apiStart))
	if err != nil {
		return s.failed(m, seq, "api", err)
	}

	applied := s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		snap := s.st.Read()
		if snap.Project.ID == projectID {
			p := snap.Project
			p.Collaborators = domain.RemoveCollaborator(p.Collaborators, selected.ID)
			s.st.ReplaceFocusedProject(p)
		}
		s.st.ReplaceSelected(domain.Collaborator{})
		s.st.SetFlag(store.CollaboratorDeleteConfirm, false)
		return true
	})
	m.SetApplied(applied)
	if applied {
		s.alertThenClear(seq, domain.Success(ack.Message))
	}
	return nil
}
