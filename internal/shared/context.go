package shared

import "context"

type ctxKey int

const sessionKey ctxKey = iota

// ContextWithSession returns a child context carrying sess.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the session attached by the session middleware,
// or nil when the request carries none.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}
