package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestWorker(url, secret string, retries int) *WebhookWorker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	cfg := &config.Config{
		WebhookURL:        url,
		WebhookSecret:     secret,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: retries,
		WebhookBaseDelay:  time.Millisecond,
	}
	return NewWebhookWorker(nil, logger, cfg, clockwork.NewRealClock())
}

func TestProcessWebhookEvent_SignsPayload(t *testing.T) {
	payload := `{"id":"evt-1","type":"incident:created"}`
	var gotSignature, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL, "s3cret", 3)
	ok := w.processWebhookEvent(context.Background(), WebhookEvent{ID: "evt-1"}, payload)

	assert.True(t, ok)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, generateHMACSHA256(payload, "s3cret"), gotSignature)
}

func TestProcessWebhookEvent_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL, "", 3)

	assert.True(t, w.processWebhookEvent(context.Background(), WebhookEvent{ID: "evt-2"}, `{}`))
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL, "", 2)

	assert.False(t, w.processWebhookEvent(context.Background(), WebhookEvent{ID: "evt-3"}, `{}`))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProcessWebhookEvent_NoURL(t *testing.T) {
	w := newTestWorker("", "", 3)
	assert.False(t, w.processWebhookEvent(context.Background(), WebhookEvent{ID: "evt-4"}, `{}`))
}
