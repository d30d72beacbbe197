package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	webhookQueueKey = "webhook_events"
)

// WebhookEvent - событие шины в том виде, в котором оно уходит во внешний сервис
type WebhookEvent struct {
	ID        string           `json:"id"`
	Type      models.EventType `json:"type"`
	Data      json.RawMessage  `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewWebhookEvent упаковывает событие шины, присваивая ему уникальный ID
func NewWebhookEvent(e models.Event) (WebhookEvent, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return WebhookEvent{
		ID:        uuid.NewString(),
		Type:      e.Type,
		Data:      data,
		Timestamp: e.Timestamp,
	}, nil
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// Relay подписывается на все события шины и ставит их в очередь вебхуков.
// Ошибки публикации логируются, на шину они не влияют.
func Relay(ctx context.Context, subscribeAll func(fn func(models.Event)) func(), publisher WebhookPublisher, logger *logrus.Logger) (unsubscribe func()) {
	return subscribeAll(func(e models.Event) {
		log := logger.WithField("event_type", e.Type)

		event, err := NewWebhookEvent(e)
		if err != nil {
			log.WithError(err).Error("Failed to build webhook event")
			return
		}
		if err := publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to enqueue webhook event")
			return
		}
		log.WithField("webhook_event_id", event.ID).Debug("Webhook event enqueued")
	})
}
