package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
)

// withOrigin tags ctx with the client IP of r for publish bookkeeping.
func withOrigin(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // already rewritten by the trusted real-IP middleware
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return core.ContextWithOrigin(ctx, ip)
}
