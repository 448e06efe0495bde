package testutil

import (
	"net/http"
	"time"

	id "egresados/pkg/domain"
	"egresados/pkg/requestcontext"
)

// AsUser attaches the caller identity that the auth middleware would set for a bearer token.
// Invalid user IDs are ignored so handlers see an unauthenticated request.
func AsUser(req *http.Request, userID, role string) *http.Request {
	caller := requestcontext.Caller{Role: role}
	if parsed, err := id.ParseUserID(userID); err == nil {
		caller.UserID = parsed
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// AsAdmin is AsUser with the admin role.
func AsAdmin(req *http.Request, userID string) *http.Request {
	return AsUser(req, userID, requestcontext.RoleAdmin)
}

// AtTime pins the request-scoped clock.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
