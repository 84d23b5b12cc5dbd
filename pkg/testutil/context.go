package testutil

import (
	"net/http"
	"time"

	id "bondbook/pkg/domain"
	"bondbook/pkg/requestcontext"
)

// WithOwner marks the request as authenticated by owner, as the auth
// middleware would.
func WithOwner(req *http.Request, owner id.OwnerID) *http.Request {
	return req.WithContext(requestcontext.WithOwnerID(req.Context(), owner))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
