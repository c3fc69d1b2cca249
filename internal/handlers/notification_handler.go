package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"expensetracker/internal/logger"
	"expensetracker/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// NotificationHandler delivers the workspace's toasts, either drained in one
// request or pushed over a websocket as they happen.
type NotificationHandler struct {
	upgrader websocket.Upgrader
}

// NewNotificationHandler creates a new NotificationHandler. An empty origins
// list accepts websocket connections from any origin.
func NewNotificationHandler(origins []string) *NotificationHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &NotificationHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// NotificationsResponse carries drained notifications, oldest first.
type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

// List drains the queue
// @Summary     Pending notifications
// @Description Returns and clears the notifications queued for this client, oldest first
// @Tags        notifications
// @Produce     json
// @Success     200 {object} NotificationsResponse "Notifications"
// @Router      /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, NotificationsResponse{Notifications: w.Notifications.Drain()})
}

// Stream pushes notifications over a websocket
// @Summary     Notification stream
// @Description Upgrades to a websocket that receives every new notification as a JSON message. Queued notifications stay queued.
// @Tags        notifications
// @Success     101 "Switching protocols"
// @Router      /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Warnw("failed to upgrade notification stream", "error", err, "client_id", w.ID)
		return
	}

	ch, cancel := w.Notifications.Subscribe()
	go readPump(conn, cancel)
	writePump(conn, ch, cancel)
}

// readPump discards client messages and cancels the subscription once the
// connection goes away.
func readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Debugw("notification stream closed", "error", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, ch <-chan notify.Notification, cancel func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case n, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				logger.Get().Debugw("failed to write notification", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
