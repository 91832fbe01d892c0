// Package identity provides anonymous client identity primitives: default
// chat session ids and the client IP used for throttling.
package identity

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

// SessionIDPrefix prefixes generated session ids.
const SessionIDPrefix = "session_"

// NewSessionID returns a session id derived from the current time in
// milliseconds. Two clients starting in the same millisecond share a session.
func NewSessionID(now time.Time) string {
	return SessionIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// SessionIDOrDefault returns id, or a generated one when id is empty.
func SessionIDOrDefault(id string, now time.Time) string {
	if id != "" {
		return id
	}
	return NewSessionID(now)
}

// IPFromRequest returns a normalized remote IP. Behind chi's RealIP
// middleware RemoteAddr already holds the forwarded client address.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
