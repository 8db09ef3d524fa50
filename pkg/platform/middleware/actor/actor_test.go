package actor

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"landrec/pkg/requestcontext"
)

func TestRequireActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("injects user and roles", func(t *testing.T) {
		userID := uuid.New()
		var gotRoles []string
		var gotUser string
		h := RequireActor(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = requestcontext.UserID(r.Context()).String()
			gotRoles = requestcontext.UserRoles(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, userID.String())
		req.Header.Set(HeaderUserRoles, "Recorder, signer,,")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, userID.String(), gotUser)
		assert.Equal(t, []string{"recorder", "signer"}, gotRoles)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		h := RequireActor(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
