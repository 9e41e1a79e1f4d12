package httpx

import "context"

type ctxKey string

const (
	// CtxKeyClientID holds the authenticated client's public identifier.
	CtxKeyClientID ctxKey = "client_id"
	// CtxKeyAuthorities holds the authority names granted to the client.
	CtxKeyAuthorities ctxKey = "authorities"
)

// WithClient stamps the authenticated client and its authorities into ctx.
func WithClient(ctx context.Context, clientID string, authorities []string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyClientID, clientID)
	return context.WithValue(ctx, CtxKeyAuthorities, authorities)
}

// ClientIDFromCtx returns the authenticated client id, or "" when the request
// is unauthenticated.
func ClientIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyClientID).(string); ok {
		return v
	}
	return ""
}

// AuthoritiesFromCtx returns the authenticated client's authorities.
func AuthoritiesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyAuthorities).([]string); ok {
		return v
	}
	return nil
}
