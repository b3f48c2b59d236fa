package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/linequery/internal/query"
)

// WithRequestMetadata adds IP and User-Agent to context for the query history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // already resolved by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ua := r.Header.Get("User-Agent")
	ctx = query.ContextWithIPAddress(ctx, ip)
	ctx = query.ContextWithUserAgent(ctx, ua)
	return ctx
}
