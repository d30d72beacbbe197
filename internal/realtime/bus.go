// Package realtime - шина событий внутри процесса, раздающая обновления
// инцидентов и экипажей подписчикам.
package realtime

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

type Handler = func(models.Event)

type subscription struct {
	id uint64
	fn Handler
}

type Bus struct {
	clock  clockwork.Clock
	logger *logrus.Logger

	mu          sync.RWMutex
	subscribers map[models.EventType][]subscription
	nextID      uint64
	connected   bool
}

func NewBus(clock clockwork.Clock, logger *logrus.Logger) *Bus {
	subs := make(map[models.EventType][]subscription, len(models.EventTypes))
	for _, t := range models.EventTypes {
		subs[t] = nil
	}
	return &Bus{
		clock:       clock,
		logger:      logger,
		subscribers: subs,
	}
}

func (b *Bus) Connect() {
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	b.logger.Info("Connected to real-time service")
}

func (b *Bus) Disconnect() {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	b.logger.Info("Disconnected from real-time service")
}

func (b *Bus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Subscribe подписывает fn на тип события. Для неизвестного типа
// возвращается пустая функция отписки.
func (b *Bus) Subscribe(eventType models.EventType, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	subs, ok := b.subscribers[eventType]
	if !ok {
		b.mu.Unlock()
		b.logger.WithField("event_type", eventType).Warn("Subscribe to unknown event type")
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	b.logger.WithField("event_type", eventType).Debug("Subscribed")

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subscribers[eventType]
			for i, s := range subs {
				if s.id == id {
					b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			b.logger.WithField("event_type", eventType).Debug("Unsubscribed")
		})
	}
}

func (b *Bus) SubscribeAll(fn Handler) (unsubscribe func()) {
	unsubs := make([]func(), 0, len(models.EventTypes))
	for _, t := range models.EventTypes {
		unsubs = append(unsubs, b.Subscribe(t, fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Emit доставляет событие синхронно в порядке подписки. Паника подписчика
// логируется и не мешает остальным.
func (b *Bus) Emit(eventType models.EventType, data any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[eventType]))
	copy(subs, b.subscribers[eventType])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	event := models.Event{
		Type:      eventType,
		Data:      data,
		Timestamp: b.clock.Now(),
	}
	for _, s := range subs {
		b.deliver(s.fn, event)
	}
}

func (b *Bus) deliver(fn Handler, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"event_type": event.Type,
				"panic":      r,
			}).Error("Error in realtime callback")
		}
	}()
	fn(event)
}

// SubscriberCount считает подписчиков типа или всех, если eventType пустой
func (b *Bus) SubscriberCount(eventType models.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if eventType != "" {
		return len(b.subscribers[eventType])
	}
	total := 0
	for _, subs := range b.subscribers {
		total += len(subs)
	}
	return total
}

// SendMessage исходящий канал чата, пока только пишет в журнал
func (b *Bus) SendMessage(channel, message string) {
	b.logger.WithFields(logrus.Fields{
		"channel": channel,
		"message": message,
	}).Info("Sending message")
}
