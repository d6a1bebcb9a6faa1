// Package store holds the client side replicated state the rendering layer
// reads from. It is a dumb holder: every write replaces a whole slice of
// state and nothing is validated here.
package store

import (
	"sync"

	"prism-sync/domain"
)

// Flag names one of the session scoped UI toggles.
type Flag int

const (
	TaskForm Flag = iota
	TaskDeleteConfirm
	CollaboratorDeleteConfirm
	Search
)

func (f Flag) String() string {
	switch f {
	case TaskForm:
		return "task-form"
	case TaskDeleteConfirm:
		return "task-delete-confirm"
	case CollaboratorDeleteConfirm:
		return "collaborator-delete-confirm"
	case Search:
		return "search"
	default:
		return "unknown"
	}
}

// Flags are the four independent UI toggles.
type Flags struct {
	TaskForm                  bool
	TaskDeleteConfirm         bool
	CollaboratorDeleteConfirm bool
	Search                    bool
}

// Get returns the value of flag.
func (f Flags) Get(flag Flag) bool {
	switch flag {
	case TaskForm:
		return f.TaskForm
	case TaskDeleteConfirm:
		return f.TaskDeleteConfirm
	case CollaboratorDeleteConfirm:
		return f.CollaboratorDeleteConfirm
	case Search:
		return f.Search
	default:
		return false
	}
}

// Snapshot is a copy of the whole state at one point in time.
type Snapshot struct {
	Projects  []domain.Project
	Project   domain.Project
	Task      domain.Task
	Alert     domain.Alert
	Flags     Flags
	Candidate domain.Collaborator
	Selected  domain.Collaborator
	Loading   bool
}

// Store is the single source of truth for the rendering layer.
type Store struct {
	mu    sync.RWMutex
	state Snapshot
	gen   uint64

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: Snapshot{Projects: []domain.Project{}},
		subs:  make(map[chan struct{}]struct{}),
	}
}

// Read returns a deep copy of the current state.
func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.Projects = make([]domain.Project, len(s.state.Projects))
	for i, p := range s.state.Projects {
		out.Projects[i] = p.Clone()
	}
	out.Project = s.state.Project.Clone()
	return out
}

// ReplaceProjects replaces the flat projects collection.
func (s *Store) ReplaceProjects(projects []domain.Project) {
	cp := make([]domain.Project, len(projects))
	for i, p := range projects {
		cp[i] = p.Clone()
	}
	s.write(func(st *Snapshot) { st.Projects = cp })
}

// ReplaceFocusedProject replaces the currently open project.
func (s *Store) ReplaceFocusedProject(p domain.Project) {
	p = p.Clone()
	s.write(func(st *Snapshot) { st.Project = p })
}

// ReplaceFocusedTask replaces the task selected for editing or deletion.
func (s *Store) ReplaceFocusedTask(t domain.Task) {
	s.write(func(st *Snapshot) { st.Task = t })
}

// ReplaceAlert replaces the alert and returns the generation assigned to it.
func (s *Store) ReplaceAlert(a domain.Alert) uint64 {
	var gen uint64
	s.write(func(st *Snapshot) {
		s.gen++
		gen = s.gen
		a.Generation = gen
		st.Alert = a
	})
	return gen
}

// ClearAlert resets the alert only if gen is still the current generation.
// It reports whether the alert was cleared.
func (s *Store) ClearAlert(gen uint64) bool {
	cleared := false
	s.write(func(st *Snapshot) {
		if st.Alert.Generation != gen {
			return
		}
		s.gen++
		st.Alert = domain.Alert{Generation: s.gen}
		cleared = true
	})
	return cleared
}

// SetFlag sets one UI toggle.
func (s *Store) SetFlag(f Flag, v bool) {
	s.write(func(st *Snapshot) {
		switch f {
		case TaskForm:
			st.Flags.TaskForm = v
		case TaskDeleteConfirm:
			st.Flags.TaskDeleteConfirm = v
		case CollaboratorDeleteConfirm:
			st.Flags.CollaboratorDeleteConfirm = v
		case Search:
			st.Flags.Search = v
		}
	})
}

// ReplaceCandidate replaces the collaborator found by email lookup.
func (s *Store) ReplaceCandidate(c domain.Collaborator) {
	s.write(func(st *Snapshot) { st.Candidate = c })
}

// ReplaceSelected replaces the collaborator selected for removal.
func (s *Store) ReplaceSelected(c domain.Collaborator) {
	s.write(func(st *Snapshot) { st.Selected = c })
}

// SetLoading sets the loading indicator.
func (s *Store) SetLoading(v bool) {
	s.write(func(st *Snapshot) { st.Loading = v })
}

// Reset returns every field to its empty baseline. The alert generation
// keeps counting so clears scheduled before the reset stay stale.
func (s *Store) Reset() {
	s.write(func(st *Snapshot) {
		s.gen++
		*st = Snapshot{Projects: []domain.Project{}, Alert: domain.Alert{Generation: s.gen}}
	})
}

func (s *Store) write(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}
