package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"chat-desk/repositories"
	"chat-desk/runtime"
	"chat-desk/services"
	"chat-desk/sink"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBlobStore records uploads without touching the filesystem.
type stubBlobStore struct {
	saved []string
}

func (s *stubBlobStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.saved = append(s.saved, filename)
	return "blobs/" + filename, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubBlobStore) {
	t.Helper()
	logger := testLogger()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	messages, err := repositories.NewMessageRepository(db, writer, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = messages.Close() })

	notifications := repositories.NewNotificationRepository(db, logger, 50)
	registry := runtime.NewRegistry(logger)
	dispatcher := runtime.NewDispatcher(logger, registry)

	throttle, err := runtime.NewThrottle(1000, 0)
	require.NoError(t, err)
	t.Cleanup(throttle.Close)

	service := services.NewChatService(logger, messages, notifications, dispatcher, registry, throttle, sink.NewAuditLog(logger))

	blobs := &stubBlobStore{}
	router := NewRouter(logger, service, blobs, RouterConfig{
		AuthSecret: testSecret,
		PageSize:   20,
		WS: WSConfig{
			WriteWait:      time.Second,
			PongWait:       2 * time.Second,
			PingInterval:   time.Second,
			MaxMessageSize: 1024,
			SendBufferSize: 16,
		},
	})
	return router, blobs
}

func tokenFor(t *testing.T, userID, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// do runs one authenticated request against the router.
func do(t *testing.T, router *gin.Engine, userID, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	request := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		request.Header.Set("Authorization", "Bearer "+tokenFor(t, userID, testSecret))
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))
	return out
}
