package consts

import "time"

const (
	// RelayChannel is the redis pub/sub channel relay instances fan frames out on.
	RelayChannel = "prism:relay"
	// WSPath is the relay websocket endpoint.
	WSPath = "/ws"
	// TokenQueryParam carries the bearer token for clients that cannot set headers.
	TokenQueryParam = "token"
	// RequestIDHeader is attached to every API request.
	RequestIDHeader = "X-Request-ID"
)

const (
	DefaultAlertDelay   = 3 * time.Second
	DefaultRelayAddr    = ":9000"
	DefaultWriteTimeout = 10 * time.Second
	DefaultHTTPTimeout  = 30 * time.Second
)
