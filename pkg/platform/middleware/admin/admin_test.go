package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/audit/publisher"
	"mrzgate/pkg/platform/audit/store/memory"
	"mrzgate/pkg/platform/middleware/metadata"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("matching token passes", func(t *testing.T) {
		h := RequireAdminToken("secret", logger, nil)(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderAdminToken, "secret")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("mismatch is rejected and audited", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := publisher.NewPublisher(store)
		defer pub.Close()

		h := metadata.ClientMetadata(RequireAdminToken("secret", logger, pub)(ok))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set(HeaderAdminToken, "wrong")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		events, err := store.ListBySubject(req.Context(), "203.0.113.9")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, string(audit.EventAdminAuthFailed), events[0].Action)
		assert.Equal(t, audit.CategorySecurity, events[0].Category)
	})

	t.Run("empty configured token rejects everything", func(t *testing.T) {
		h := RequireAdminToken("", logger, nil)(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
