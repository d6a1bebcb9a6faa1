package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"prism-sync/internal/consts"
)

// WS is a Channel over a websocket connection to the relay.
type WS struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string][]Handler

	done      chan struct{}
	closeOnce sync.Once
}

// DialWS connects to the relay at rawURL. A non-empty token is sent both as
// a bearer header and as the token query parameter.
func DialWS(ctx context.Context, rawURL, token string, logger *log.Logger) (*WS, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("relay url: %w", err)
	}
	header := http.Header{}
	if token != "" {
		q := u.Query()
		q.Set(consts.TokenQueryParam, token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial relay: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	w := &WS{
		conn:     conn,
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
	go w.readPump()
	return w, nil
}

// WSDialer adapts DialWS to a Dialer for Lazy.
func WSDialer(rawURL string, token func() string, logger *log.Logger) Dialer {
	return func(ctx context.Context) (Channel, error) {
		tok := ""
		if token != nil {
			tok = token()
		}
		return DialWS(ctx, rawURL, tok, logger)
	}
}

// Emit implements Channel.
func (w *WS) Emit(ctx context.Context, event string, payload any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	frame, err := sonic.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	deadline := time.Now().Add(consts.DefaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(deadline)
	return w.conn.WriteMessage(websocket.TextMessage, frame)
}

// On implements Channel.
func (w *WS) On(event string, h Handler) {
	w.mu.Lock()
	w.handlers[event] = append(w.handlers[event], h)
	w.mu.Unlock()
}

// Done is closed once the read pump stops.
func (w *WS) Done() <-chan struct{} { return w.done }

// Close implements Channel.
func (w *WS) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.writeMu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		w.writeMu.Unlock()
		err = w.conn.Close()
	})
	<-w.done
	return err
}

func (w *WS) readPump() {
	defer close(w.done)
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.WithError(err).Debug("broadcast read stopped")
			}
			return
		}
		var frame Frame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			w.logger.WithError(err).Warn("unable to parse broadcast frame")
			continue
		}
		w.mu.RLock()
		hs := append([]Handler(nil), w.handlers[frame.Event]...)
		w.mu.RUnlock()
		for _, h := range hs {
			h(frame.Data)
		}
	}
}
