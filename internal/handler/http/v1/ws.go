package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteTimeout = 5 * time.Second

	notificationEvent = "notification"
)

// wsMessage конверт, в котором клиенты получают события
type wsMessage struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub рассылает события шины и уведомления всем подключенным консолям
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub создает хаб. Пустой allowedOrigins разрешает любой Origin.
func NewHub(allowedOrigins []string, logger *logrus.Logger) *Hub {
	h := &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowedOrigins) == 0 || origin == "" ||
				slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// @Summary Realtime stream
// @Description WebSocket stream of bus events and notifications. Pass the session token as ?token=.
// @Tags Realtime
// @Security BearerAuth
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /ws [get]
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", count).Info("Console connected to realtime stream")

	// Входящие сообщения не ожидаются, чтение нужно только для обработки закрытия
	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
		h.logger.WithField("clients", count).Info("Console disconnected from realtime stream")
	}
}

// Broadcast отправляет событие всем клиентам. Клиенты, которым не удалось
// отправить сообщение, отключаются.
func (h *Hub) Broadcast(event string, data any, at time.Time) error {
	msg := wsMessage{Event: event, Data: data, Timestamp: at}

	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			errs = append(errs, fmt.Errorf("failed to write %s: %w", event, err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	return errors.Join(errs...)
}

// Forward пересылает событие шины. Подходит как обработчик для SubscribeAll.
func (h *Hub) Forward(e models.Event) {
	if err := h.Broadcast(string(e.Type), e.Data, e.Timestamp); err != nil {
		h.logger.WithError(err).WithField("event", e.Type).Warn("Failed to forward realtime event")
	}
}

// Display показывает уведомление в подключенных консолях
func (h *Hub) Display(_ context.Context, n models.Notification) error {
	return h.Broadcast(notificationEvent, n, n.Timestamp)
}

// Clients возвращает число подключенных консолей
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close закрывает все соединения
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
