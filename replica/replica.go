// Package replica keeps the client side copy of projects and tasks in sync
// with the remote service and with other clients viewing the same project.
//
// Every write goes API first: the authoritative response is merged into the
// store, announced on the broadcast channel for task changes, and reported
// through the alert. Events from other clients are applied to the focused
// project only.
package replica

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"prism-sync/channel"
	"prism-sync/domain"
	"prism-sync/internal/consts"
	"prism-sync/store"
)

// API is the remote project/task service.
type API interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	CreateProject(ctx context.Context, draft domain.ProjectDraft) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, draft domain.ProjectDraft) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) (domain.Ack, error)
	FindCollaborator(ctx context.Context, email string) (domain.Collaborator, error)
	AddCollaborator(ctx context.Context, projectID, email string) (domain.Ack, error)
	RemoveCollaborator(ctx context.Context, projectID, collaboratorID string) (domain.Ack, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) (domain.Ack, error)
	ToggleTask(ctx context.Context, id string) (domain.Task, error)
}

// Navigator moves the user interface back to the projects listing.
type Navigator interface {
	ToProjects()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// ToProjects implements Navigator.
func (f NavigatorFunc) ToProjects() { f() }

var (
	ErrMissingID   = errors.New("missing id")
	ErrNoProject   = errors.New("no project")
	ErrNoSelection = errors.New("nothing selected")
)

// Fixed alert messages per operation kind.
const (
	msgProjectCreated = "Project created successfully"
	msgProjectUpdated = "Project updated successfully"
	msgTaskCreated    = "Task created successfully"
	msgTaskUpdated    = "Task updated successfully"
	msgTaskDeleted    = "Task deleted successfully"
	msgTaskToggled    = "Task state updated"
	msgNoProject      = "A project is required"
)

// Synchronizer is the client side replicated state synchronizer.
type Synchronizer struct {
	api        API
	ch         channel.Channel
	st         *store.Store
	logger     *log.Logger
	nav        Navigator
	alertDelay time.Duration
	tracer     trace.Tracer

	// applyMu serializes every read-modify-write of the store so that
	// responses and remote events apply one at a time in arrival order.
	applyMu sync.Mutex
	seq     *sequencer

	idMu     sync.Mutex
	identity string
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithNavigator sets the navigator used when the focused project cannot be loaded.
func WithNavigator(n Navigator) Option {
	return func(s *Synchronizer) { s.nav = n }
}

// WithAlertDelay sets how long delete-class alerts stay visible.
func WithAlertDelay(d time.Duration) Option {
	return func(s *Synchronizer) { s.alertDelay = d }
}

// WithTracer sets the tracer for mutation spans. The global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(s *Synchronizer) { s.tracer = t }
}

// New creates a Synchronizer. ch may be nil, in which case edits are only
// propagated through the API.
func New(api API, ch channel.Channel, st *store.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:        api,
		ch:         ch,
		st:         st,
		logger:     log.StandardLogger(),
		nav:        NavigatorFunc(func() {}),
		alertDelay: consts.DefaultAlertDelay,
		seq:        newSequencer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.st == nil {
		s.st = store.New()
	}
	if s.ch != nil {
		s.registerRemote()
	}
	return s
}

// Store returns the store the synchronizer writes to.
func (s *Synchronizer) Store() *store.Store { return s.st }

func (s *Synchronizer) apply(fn func() bool) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return fn()
}

// alert shows a unless the session that issued seq has ended.
func (s *Synchronizer) alert(seq uint64, a domain.Alert) bool {
	return s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		s.st.ReplaceAlert(a)
		return true
	})
}

// alertThenClear shows a and clears it after the alert delay unless a newer
// alert replaced it in the meantime. Nothing is shown once the session that
// issued seq has ended.
func (s *Synchronizer) alertThenClear(seq uint64, a domain.Alert) bool {
	var gen uint64
	shown := s.apply(func() bool {
		if !s.seq.current(seq) {
			return false
		}
		gen = s.st.ReplaceAlert(a)
		return true
	})
	if !shown {
		return false
	}
	time.AfterFunc(s.alertDelay, func() {
		s.st.ClearAlert(gen)
	})
	return true
}
