package channel

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dialer opens a new connection.
type Dialer func(ctx context.Context) (Channel, error)

// ReconnectHook runs on a connection that replaced a dropped one, before it
// is handed out. It restores per-connection server state such as room
// membership.
type ReconnectHook func(ctx context.Context, conn Channel)

// Lazy owns one connection per session. The connection is dialed on first
// use and reused afterwards; handlers registered with On survive redials.
type Lazy struct {
	dial   Dialer
	logger *log.Logger

	mu       sync.Mutex
	conn     Channel
	handlers map[string][]Handler
	hooks    []ReconnectHook
	// redial is set once a connection dropped and cleared when a new one
	// is up again.
	redial bool
}

// NewLazy returns a channel that dials with dial when first needed.
func NewLazy(dial Dialer, logger *log.Logger) *Lazy {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Lazy{dial: dial, logger: logger, handlers: make(map[string][]Handler)}
}

type doner interface {
	Done() <-chan struct{}
}

// Connect returns the live connection, dialing if there is none or the
// previous one dropped.
func (l *Lazy) Connect(ctx context.Context) (Channel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil && !dropped(l.conn) {
		return l.conn, nil
	}
	if l.conn != nil {
		l.logger.Warn("broadcast connection dropped, redialing")
		_ = l.conn.Close()
		l.conn = nil
		l.redial = true
	}
	conn, err := l.dial(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("broadcast connection unavailable")
		return nil, err
	}
	for ev, hs := range l.handlers {
		for _, h := range hs {
			conn.On(ev, h)
		}
	}
	if l.redial {
		for _, hook := range l.hooks {
			hook(ctx, conn)
		}
		l.redial = false
	}
	l.conn = conn
	l.logger.Debug("broadcast connection established")
	return conn, nil
}

// Emit connects if needed and sends the event.
func (l *Lazy) Emit(ctx context.Context, event string, payload any) error {
	conn, err := l.Connect(ctx)
	if err != nil {
		return err
	}
	return conn.Emit(ctx, event, payload)
}

// On registers h on the current connection and on every future one.
func (l *Lazy) On(event string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[event] = append(l.handlers[event], h)
	if l.conn != nil {
		l.conn.On(event, h)
	}
}

// OnReconnect registers hook to run whenever a dropped connection is
// replaced. A connection opened after Close is a new session and does not
// run it.
func (l *Lazy) OnReconnect(hook ReconnectHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Close is the teardown hook invoked on session end. Registered handlers
// are kept, so a later Connect starts a fresh session connection.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redial = false
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

func dropped(c Channel) bool {
	d, ok := c.(doner)
	if !ok {
		return false
	}
	select {
	case <-d.Done():
		return true
	default:
		return false
	}
}
