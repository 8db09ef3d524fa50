// Package actor resolves the acting office user from gateway headers.
//
// Authentication happens upstream; the gateway forwards the verified user ID
// and the comma separated office roles.
package actor

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "landrec/pkg/domain"
	request "landrec/pkg/platform/middleware/request"
	strs "landrec/pkg/platform/strings"
	"landrec/pkg/requestcontext"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireActor rejects requests without a valid acting user.
func RequireActor(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID, err := id.ParseUserID(r.Header.Get(HeaderUserID))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - missing or invalid acting user",
					"request_id", request.GetRequestID(ctx),
					"error", err,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "acting user required")
				return
			}
			roles := ParseRoles(r.Header.Get(HeaderUserRoles))
			ctx = requestcontext.WithUser(ctx, userID, roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseRoles splits a comma separated role header, lowercasing and dropping
// blanks and repeats.
func ParseRoles(raw string) []string {
	return strs.DedupeAndTrimLower(strings.Split(raw, ","))
}
