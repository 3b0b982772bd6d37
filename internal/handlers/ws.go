package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/watchpost-dev/watchpost/internal/models"
	"github.com/watchpost-dev/watchpost/internal/types"
	"github.com/watchpost-dev/watchpost/internal/utils"
	"go.uber.org/zap"
)

var (
	userClients   = make(map[uuid.UUID]map[*websocket.Conn]bool)
	userClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type checkEvent struct {
	Type         string    `json:"type"`
	MonitorID    string    `json:"monitor_id"`
	MonitorName  string    `json:"monitor_name"`
	Success      bool      `json:"success"`
	StatusCode   *int      `json:"status_code"`
	ResponseTime *float64  `json:"response_time"`
	IsDown       bool      `json:"is_down"`
	CheckedAt    time.Time `json:"checked_at"`
}

// BroadcastCheck pushes a recorded check to every connection the
// monitor's owner has open. Wired into the service via OnCheckRecorded.
func BroadcastCheck(monitor *models.Monitor, check *models.Check) {
	userClientsMu.RLock()
	clients, exists := userClients[monitor.OwnerID]
	if !exists || len(clients) == 0 {
		userClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	userClientsMu.RUnlock()

	event := checkEvent{
		Type:         "check",
		MonitorID:    monitor.ID.String(),
		MonitorName:  monitor.Name,
		Success:      check.Success,
		StatusCode:   check.StatusCode,
		ResponseTime: check.ResponseTime,
		IsDown:       !check.Success,
		CheckedAt:    check.CreatedAt,
	}

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			zap.L().Warn("failed to set write deadline for broadcast", zap.Error(err))
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			zap.L().Warn("failed to broadcast check to client", zap.Error(err))
			removeClient(monitor.OwnerID, conn)
			conn.Close()
		}
	}
}

func removeClient(userID uuid.UUID, conn *websocket.Conn) {
	userClientsMu.Lock()
	if clients, exists := userClients[userID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(userClients, userID)
		}
	}
	userClientsMu.Unlock()
}

// WebSocket streams the caller's check events as they are recorded.
func WebSocket(c *gin.Context) {
	userID, err := utils.GetCurrentUserID(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		zap.L().Warn("failed to set initial read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	userClientsMu.Lock()
	if userClients[userID] == nil {
		userClients[userID] = make(map[*websocket.Conn]bool)
	}
	userClients[userID][conn] = true
	userClientsMu.Unlock()

	defer func() {
		removeClient(userID, conn)
		conn.Close()
		zap.L().Debug("websocket connection closed", zap.String("user_id", userID.String()))
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "WebSocket connection established",
	}); err != nil {
		zap.L().Warn("failed to send welcome message", zap.Error(err))
		return
	}

	// The done channel stops the ping goroutine; a stopped ticker alone
	// would leave it blocked on the channel forever.
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket read error",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}
			break
		}
	}
}
