// Package reqid carries a request correlation ID through context.
package reqid

import "context"

type ctxKey struct{}

// With attaches the correlation ID to ctx.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From reports the correlation ID carried by ctx. The second return is false
// when no ID was attached.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(ctxKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
