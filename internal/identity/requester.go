// Package identity turns bearer tokens into a Requester and owns the single
// place where admin status is decided.
package identity

import "context"

// Identity is what a verified token asserts about its subject.
type Identity struct {
	SubjectID string
	Email     string
	// Admin is the token's own admin claim; it is one input to the admin
	// decision, not the decision.
	Admin bool
}

// Requester is resolved once per request and passed down explicitly.
type Requester struct {
	ID        string
	Email     string
	IsAdmin   bool
	Suspended bool
}

func (r Requester) Authenticated() bool { return r.ID != "" }

type ctxKey struct{}

func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

func RequesterFrom(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(ctxKey{}).(Requester)
	return r, ok
}
