package channel

import (
	"context"
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeConn struct {
	mu       sync.Mutex
	emitted  []string
	handlers map[string][]Handler
	closed   bool
	done     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: map[string][]Handler{}, done: make(chan struct{})}
}

func (f *fakeConn) Emit(_ context.Context, event string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, event)
	return nil
}

func (f *fakeConn) On(event string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = append(f.handlers[event], h)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) Done() <-chan struct{} { return f.done }

func (f *fakeConn) deliver(event string, data []byte) {
	f.mu.Lock()
	hs := append([]Handler(nil), f.handlers[event]...)
	f.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func TestLazyDialsOnceAndReuses(t *testing.T) {
	dials := 0
	conn := newFakeConn()
	l := NewLazy(func(context.Context) (Channel, error) {
		dials++
		return conn, nil
	}, nil)

	if dials != 0 {
		t.Fatal("dialed before first use")
	}
	for i := 0; i < 3; i++ {
		if err := l.Emit(context.Background(), "open-project", "p1"); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if dials != 1 {
		t.Fatalf("expected one dial, got %d", dials)
	}
	if len(conn.emitted) != 3 {
		t.Fatalf("expected 3 emits, got %d", len(conn.emitted))
	}
}

func TestLazyReplaysHandlersOnRedial(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	conns := []*fakeConn{first, second}
	l := NewLazy(func(context.Context) (Channel, error) {
		c := conns[0]
		conns = conns[1:]
		return c, nil
	}, nil)

	var got []string
	l.On("task-created", func(data []byte) { got = append(got, string(data)) })

	if _, err := l.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	first.deliver("task-created", []byte("a"))

	close(first.done)
	if _, err := l.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !first.closed {
		t.Fatal("dropped connection not closed")
	}
	second.deliver("task-created", []byte("b"))

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestLazyDialFailureIsLoggedAndRetried(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fail := true
	l := NewLazy(func(context.Context) (Channel, error) {
		if fail {
			return nil, errors.New("refused")
		}
		return newFakeConn(), nil
	}, logger)

	if err := l.Emit(context.Background(), "open-project", "p1"); err == nil {
		t.Fatal("expected dial error")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel {
		t.Fatalf("expected warning log, got %+v", entry)
	}
	fail = false
	if err := l.Emit(context.Background(), "open-project", "p1"); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestLazyCloseTearsDownAndAllowsNewSession(t *testing.T) {
	dials := 0
	var last *fakeConn
	l := NewLazy(func(context.Context) (Channel, error) {
		dials++
		last = newFakeConn()
		return last, nil
	}, nil)

	if err := l.Close(); err != nil {
		t.Fatalf("close without connection: %v", err)
	}
	if _, err := l.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	first := last
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !first.closed {
		t.Fatal("connection not closed")
	}
	if _, err := l.Connect(context.Background()); err != nil {
		t.Fatalf("connect after close: %v", err)
	}
	if dials != 2 {
		t.Fatalf("expected a fresh dial after close, got %d dials", dials)
	}
}

func TestLazyReconnectHookRunsOnlyAfterDrop(t *testing.T) {
	var conns []*fakeConn
	l := NewLazy(func(context.Context) (Channel, error) {
		c := newFakeConn()
		conns = append(conns, c)
		return c, nil
	}, nil)
	l.OnReconnect(func(ctx context.Context, conn Channel) {
		_ = conn.Emit(ctx, "open-project", "p1")
	})
	ctx := context.Background()

	if err := l.Emit(ctx, "open-project", "p1"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	close(conns[0].done)
	if err := l.Emit(ctx, "new-task", nil); err != nil {
		t.Fatalf("emit after drop: %v", err)
	}
	if got := conns[1].emitted; len(got) != 2 || got[0] != "open-project" || got[1] != "new-task" {
		t.Fatalf("expected room to be rejoined before the event, got %v", got)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := l.Connect(ctx); err != nil {
		t.Fatalf("connect after close: %v", err)
	}
	if got := conns[2].emitted; len(got) != 0 {
		t.Fatalf("new session must not rejoin, got %v", got)
	}
}
