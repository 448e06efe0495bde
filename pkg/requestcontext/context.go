// Package requestcontext carries the authenticated caller, request ID and
// request clock through context.Context so services never import net/http.
//
// Tests pin the clock with WithTime:
//
//	ctx = requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
package requestcontext

import (
	"context"
	"time"

	id "egresados/pkg/domain"
)

// Roles issued by the identity provider.
const (
	RoleAdmin    = "admin"
	RoleEgresado = "egresado"
)

// Caller is the identity the auth middleware extracted from the bearer token.
type Caller struct {
	UserID id.UserID
	Role   string
}

type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithCaller stores the authenticated caller.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// UserID is the caller's user ID, or the nil ID for anonymous requests.
func UserID(ctx context.Context) id.UserID {
	c, _ := CallerFrom(ctx)
	return c.UserID
}

func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(requestIDKey{}).(string)
	return reqID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now is the time the request started, in UTC. Outside a request it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t.UTC())
}
