package v1

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	hub := NewHub(origins, logger)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.ServeWS)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_ForwardsBusEvents(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Forward(models.Event{
		Type:      models.EventResponderLocationUpdate,
		Data:      models.ResponderLocationUpdate{ResponderID: "RESP-001"},
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})

	var msg struct {
		Event string                         `json:"event"`
		Data  models.ResponderLocationUpdate `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(models.EventResponderLocationUpdate), msg.Event)
	assert.Equal(t, "RESP-001", msg.Data.ResponderID)
}

func TestHub_DisplaysNotifications(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	err := hub.Display(context.Background(), models.Notification{ID: "n1", Title: "Incident INC-0001"})
	require.NoError(t, err)

	var msg struct {
		Event string              `json:"event"`
		Data  models.Notification `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, notificationEvent, msg.Event)
	assert.Equal(t, "n1", msg.Data.ID)
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	_, srv := newTestHub(t, "http://console.resq.ph")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub, _ := newTestHub(t)
	assert.NoError(t, hub.Broadcast("noop", nil, time.Now()))
}
