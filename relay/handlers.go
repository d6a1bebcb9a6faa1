package relay

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"prism-sync/channel"
	"prism-sync/internal/consts"
)

const (
	maxFrameSize = 64 * 1024 // 64 KiB
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Register wires up relay endpoints on the given Echo instance. auth may be
// nil to accept anonymous clients.
func Register(e *echo.Echo, hub *Hub, auth Authenticator, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.GET(consts.WSPath, serveWS(hub, auth, logger))
	e.GET("/healthz", healthz)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func serveWS(hub *Hub, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := ""
		if auth != nil {
			token := c.QueryParam(consts.TokenQueryParam)
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" && token != "" {
				authHeader = "Bearer " + token
			}
			uid, err := auth.UserIDFromAuthHeader(authHeader)
			if err != nil {
				return c.String(http.StatusUnauthorized, err.Error())
			}
			userID = uid
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return nil
		}
		m := hub.Connect(userID)
		fields := log.Fields{"member": m.ID, "user": userID}
		logger.WithFields(fields).Debug("member connected")

		done := make(chan struct{})
		go writePump(conn, m, done, logger)

		ctx := c.Request().Context()
		conn.SetReadLimit(maxFrameSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var frame channel.Frame
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				logger.WithFields(fields).Warnf("unable to parse frame: %v", err)
				continue
			}
			hub.HandleFrame(ctx, m, frame)
		}

		hub.Disconnect(m)
		close(done)
		_ = conn.Close()
		logger.WithFields(fields).Debug("member disconnected")
		return nil
	}
}

func writePump(conn *websocket.Conn, m *Member, done <-chan struct{}, logger *log.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case frame := <-m.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(consts.DefaultWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.WithField("member", m.ID).Debugf("write failed: %v", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(consts.DefaultWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
