package replica

import (
	"context"

	"prism-sync/domain"
	"prism-sync/store"
)

// SetIdentity records the signed in user. Each change of identity reloads
// the projects collection; an empty id means nobody is signed in.
func (s *Synchronizer) SetIdentity(ctx context.Context, id string) {
	s.idMu.Lock()
	changed := s.identity != id
	s.identity = id
	s.idMu.Unlock()
	if !changed || id == "" {
		return
	}
	if err := s.FetchProjects(ctx); err != nil {
		s.logger.WithError(err).WithField("identity", id).Debug("failed to load projects")
	}
}

// WatchSession follows identity changes until ctx is done or ids is closed.
func (s *Synchronizer) WatchSession(ctx context.Context, ids <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-ids:
			if !ok {
				return
			}
			s.SetIdentity(ctx, id)
		}
	}
}

// Logout resets the store to its empty baseline and closes the broadcast
// connection. No events are emitted.
func (s *Synchronizer) Logout() {
	s.idMu.Lock()
	s.identity = ""
	s.idMu.Unlock()

	s.apply(func() bool {
		s.seq.reset()
		s.st.Reset()
		return true
	})
	if s.ch == nil {
		return
	}
	if err := s.ch.Close(); err != nil {
		s.logger.WithError(err).Warn("failed to close broadcast channel")
	}
}

// ShowAlert replaces the alert.
func (s *Synchronizer) ShowAlert(a domain.Alert) {
	s.st.ReplaceAlert(a)
}

// ToggleTaskForm opens or closes the task form with an empty selection.
func (s *Synchronizer) ToggleTaskForm() {
	s.apply(func() bool {
		s.st.ReplaceFocusedTask(domain.Task{})
		s.flip(store.TaskForm)
		return true
	})
}

// OpenEditTask selects task and toggles the task form.
func (s *Synchronizer) OpenEditTask(task domain.Task) {
	s.apply(func() bool {
		s.st.ReplaceFocusedTask(task)
		s.flip(store.TaskForm)
		return true
	})
}

// OpenDeleteTask selects task and toggles the delete confirmation.
func (s *Synchronizer) OpenDeleteTask(task domain.Task) {
	s.apply(func() bool {
		s.st.ReplaceFocusedTask(task)
		s.flip(store.TaskDeleteConfirm)
		return true
	})
}

// ToggleCollaboratorDelete selects c and toggles the removal confirmation.
func (s *Synchronizer) ToggleCollaboratorDelete(c domain.Collaborator) {
	s.apply(func() bool {
		s.st.ReplaceSelected(c)
		s.flip(store.CollaboratorDeleteConfirm)
		return true
	})
}

// ToggleSearch opens or closes the collaborator search.
func (s *Synchronizer) ToggleSearch() {
	s.apply(func() bool {
		s.flip(store.Search)
		return true
	})
}

// flip negates a flag. Callers hold applyMu.
func (s *Synchronizer) flip(f store.Flag) {
	s.st.SetFlag(f, !s.st.Read().Flags.Get(f))
}
