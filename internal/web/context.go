package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/frequencia/internal/core"
)

// withOrigin records the submitting client on the request context.
// RemoteAddr has already been rewritten by TrustedRealIP.
func withOrigin(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithOrigin(ctx, core.Origin{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
}
