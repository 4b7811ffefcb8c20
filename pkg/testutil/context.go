package testutil

import (
	"net/http"

	id "github.com/notorious-utopia/egrn/pkg/domain"
	"github.com/notorious-utopia/egrn/pkg/requestcontext"
)

// AsUser stamps the request context the way the auth middleware would
// for an authenticated caller.
func AsUser(req *http.Request, userID id.UserID, username string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithUsername(ctx, username)
	return req.WithContext(ctx)
}

// WithUsername stamps only the username; handlers key order ownership
// off it.
func WithUsername(req *http.Request, username string) *http.Request {
	return req.WithContext(requestcontext.WithUsername(req.Context(), username))
}

// WithRequestID stamps a request id for log and audit assertions.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
