package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireIdentity_Rejects_Missing_Token(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	recorder := do(t, router, "", http.MethodGet, "/notifications", nil)
	req.Equal(http.StatusUnauthorized, recorder.Code)
}

func TestRequireIdentity_Rejects_Wrong_Signature(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	request := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	request.Header.Set("Authorization", "Bearer "+tokenFor(t, "alice", "other-secret"))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	req.Equal(http.StatusUnauthorized, recorder.Code)
}

func TestRequireIdentity_Rejects_Garbage_Token(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	request := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	request.Header.Set("Authorization", "Bearer not-a-jwt")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	req.Equal(http.StatusUnauthorized, recorder.Code)
}

func TestRequireIdentity_Accepts_Valid_Token(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t)

	recorder := do(t, router, "alice", http.MethodGet, "/notifications", nil)
	req.Equal(http.StatusOK, recorder.Code)
}
