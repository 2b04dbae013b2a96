package authcore

import "context"

type ctxKey int

const ctxKeyClientIP ctxKey = iota

// WithClientIP annotates a context with the caller's source address for audit
// events. The engine never acts on it; it only flows into [AuditEvent].
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyClientIP).(string)
	return ip
}
