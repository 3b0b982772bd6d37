package handlers

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/watchpost-dev/watchpost/internal/middleware"
	"github.com/watchpost-dev/watchpost/internal/types"
)

func newSocketServer(t *testing.T, userID uuid.UUID) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(types.ContextUserKey, middleware.AuthenticatedUser{
			ID:    userID,
			Name:  "Test User",
			Email: "ws@example.com",
		})
		WebSocket(c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": {"http://localhost:3000"}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()

	var welcome map[string]string
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "connected", welcome["type"])

	return conn
}

func hasClients(userID uuid.UUID) bool {
	userClientsMu.RLock()
	defer userClientsMu.RUnlock()
	_, ok := userClients[userID]
	return ok
}

func TestWebSocketRegistersAndUnregisters(t *testing.T) {
	userID := uuid.New()
	srv := newSocketServer(t, userID)

	conn := dialSocket(t, srv)
	require.True(t, hasClients(userID))

	conn.Close()

	require.Eventually(t, func() bool {
		return !hasClients(userID)
	}, 2*time.Second, 20*time.Millisecond)
}

// Every goroutine the handler spawns, the ping loop included, must exit
// when the connection closes.
func TestWebSocketLeavesNoGoroutinesBehind(t *testing.T) {
	userID := uuid.New()
	srv := newSocketServer(t, userID)

	before := runtime.NumGoroutine()

	for i := 0; i < 3; i++ {
		conn := dialSocket(t, srv)
		conn.Close()

		require.Eventually(t, func() bool {
			return !hasClients(userID)
		}, 2*time.Second, 20*time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, 3*time.Second, 50*time.Millisecond)
}
