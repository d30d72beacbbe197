package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/resq_dispatch/internal/config"
	"github.com/sirupsen/logrus"
)

// WebhookWorker - структура для обработки и отправки вебхуков
type WebhookWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	clock       clockwork.Clock
	httpClient  *http.Client
	done        chan struct{}
}

// NewWebhookWorker создает новый WebhookWorker
func NewWebhookWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config, clock clockwork.Clock) *WebhookWorker {
	return &WebhookWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		clock:       clock,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
		done: make(chan struct{}),
	}
}

// Start запускает горутину для обработки очереди вебхуков
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("Starting webhook worker...")
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping webhook worker.")
				return
			default:
			}

			// BRPOP - блокирующее извлечение из правой части списка (очереди)
			// 0 означает бесконечное ожидание
			result, err := w.redisClient.BRPop(ctx, 0, webhookQueueKey).Result()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue // Контекст отменен, но не ошибка Redis
				}
				w.logger.WithError(err).Error("Failed to pop webhook event from Redis")
				w.sleep(ctx, w.cfg.WebhookTimeout) // Ждем перед повторной попыткой
				continue
			}

			// result[0] - ключ, result[1] - значение
			payload := result[1]
			var event WebhookEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				w.logger.WithError(err).Error("Failed to unmarshal webhook event from Redis")
				continue
			}

			w.processWebhookEvent(ctx, event, payload)
		}
	}()
}

// Wait блокируется до остановки воркера после отмены контекста Start
func (w *WebhookWorker) Wait() {
	<-w.done
}

func (w *WebhookWorker) processWebhookEvent(ctx context.Context, event WebhookEvent, rawPayload string) bool {
	log := w.logger.WithField("webhook_event_id", event.ID).WithField("event_type", event.Type)
	log.Debug("Processing webhook event...")

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping webhook delivery.")
		return false
	}

	maxRetries := w.cfg.WebhookMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	baseDelay := w.cfg.WebhookBaseDelay

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			if !w.sleep(ctx, baseDelay) {
				return false
			}
			baseDelay *= 2 // Экспоненциальная задержка
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Errorf("Failed to create webhook request for event. Retries left: %d", maxRetries-1-i)
			continue
		}

		req.Header.Set("Content-Type", "application/json")

		// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
		if w.cfg.WebhookSecret != "" {
			signature := generateHMACSHA256(rawPayload, w.cfg.WebhookSecret)
			req.Header.Set("X-Webhook-Signature", signature)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Failed to send webhook for event. Retries left: %d", maxRetries-1-i)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			log.Info("Webhook delivered successfully.")
			return true
		}
		log.Warnf("Webhook delivery failed with status code %d. Retries left: %d", resp.StatusCode, maxRetries-1-i)
	}

	log.Errorf("Failed to deliver webhook for event after %d retries.", maxRetries)
	return false
}

// sleep ждет d по часам воркера; false, если контекст отменен раньше
func (w *WebhookWorker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := w.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
