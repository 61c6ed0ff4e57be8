package control

import (
	"net/http"
	"time"
)

// ServerBuilderOption is a functional option for configuring a Server.
type ServerBuilderOption func(*server)

// WithStatusInterval sets how often changed status is pushed to clients.
//
// Parameters:
//   - d: the interval, ignored if not positive
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithStatusInterval(d time.Duration) ServerBuilderOption {
	return func(s *server) {
		if d > 0 {
			s.statusInterval = d
		}
	}
}

// WithAllowedOrigin accepts websocket upgrades from the given origin in addition to same-host requests.
//
// Parameters:
//   - origin: e.g. "http://localhost:3000"
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithAllowedOrigin(origin string) ServerBuilderOption {
	return func(s *server) {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin || o == "http://"+r.Host
		}
	}
}
