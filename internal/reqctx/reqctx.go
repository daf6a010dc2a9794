// Package reqctx carries per-request identity and correlation data through
// a request's call graph. A single *Scope is created at request entry and
// stored in the context; later stages mutate its fields through the shared
// pointer rather than deriving new contexts, so a component that captured
// the context before authentication still observes the identity afterwards.
package reqctx

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type contextKey struct{}

var scopeKey contextKey

// Scope is the mutable per-request store. It is owned by exactly one
// request; two in-flight requests never share a Scope.
type Scope struct {
	mu           sync.Mutex
	requestID    string
	userPublicID string
}

// Begin creates a scope for a new request and attaches it to the context.
func Begin(ctx context.Context, requestID string) (context.Context, *Scope) {
	scope := &Scope{requestID: requestID}
	return context.WithValue(ctx, scopeKey, scope), scope
}

// From returns the scope attached to ctx, or nil when ctx is not part of a
// request (background jobs, startup code). Callers must tolerate nil.
func From(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeKey).(*Scope)
	return scope
}

// RequestID returns the correlation id assigned at request entry.
func (s *Scope) RequestID() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestID
}

// UserPublicID returns the authenticated subject's public id, or "" before
// authentication succeeds.
func (s *Scope) UserPublicID() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userPublicID
}

// SetUserPublicID records the resolved identity on the existing store. The
// store itself is never replaced; replacing it would hide the identity from
// code already holding the pointer.
func (s *Scope) SetUserPublicID(publicID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userPublicID = publicID
}

// Fields renders the scope as zap fields for log correlation. Outside a
// request scope it returns nothing, so background logging stays valid.
func Fields(ctx context.Context) []zap.Field {
	scope := From(ctx)
	if scope == nil {
		return nil
	}
	fields := []zap.Field{zap.String("requestId", scope.RequestID())}
	if userID := scope.UserPublicID(); userID != "" {
		fields = append(fields, zap.String("userPublicId", userID))
	}
	return fields
}
