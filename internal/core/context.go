package core

import "context"

type contextKey string

const ctxKeyOrigin contextKey = "sync_origin"

// Origin identifies the client that submitted a sync.
type Origin struct {
	IP        string
	UserAgent string
}

// ContextWithOrigin attaches the submitting client to ctx so batch logs can
// name the device a failed record came from.
func ContextWithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, o)
}

// OriginFromContext returns the client stored by ContextWithOrigin, or the
// zero Origin.
func OriginFromContext(ctx context.Context) Origin {
	if o, ok := ctx.Value(ctxKeyOrigin).(Origin); ok {
		return o
	}
	return Origin{}
}

// logAttrs returns the non-empty origin fields as slog key/value pairs.
func (o Origin) logAttrs() []any {
	var attrs []any
	if o.IP != "" {
		attrs = append(attrs, "client_ip", o.IP)
	}
	if o.UserAgent != "" {
		attrs = append(attrs, "user_agent", o.UserAgent)
	}
	return attrs
}
