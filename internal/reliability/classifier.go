// Package reliability centralizes the retry decisions shared by the
// provider clients.
package reliability

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var retryableHTTPStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	return retryableHTTPStatus[code]
}

var retryableWSClose = map[int]bool{
	websocket.CloseGoingAway:         true,
	websocket.CloseAbnormalClosure:   true,
	websocket.CloseInternalServerErr: true,
	websocket.CloseServiceRestart:    true,
	websocket.CloseTryAgainLater:     true,
}

// IsRetryableWebsocketClose classifies close codes after which a
// realtime provider connection is worth re-dialing.
func IsRetryableWebsocketClose(code int) bool {
	return retryableWSClose[code]
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, limit time.Duration) time.Duration {
	d := base
	for ; attempt > 0 && d < limit; attempt-- {
		d *= 2
	}
	if d > limit {
		return limit
	}
	return d
}
