// Package notification - ограниченный и сохраняемый список уведомлений
// с подписчиками и необязательным способом показа.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	MaxNotifications = 50
	StorageKey       = "resq_notifications"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Displayer показывает уведомление вне приложения, например в открытых консолях
type Displayer interface {
	Display(ctx context.Context, n models.Notification) error
}

// Options настройки вызова Show. Нулевое значение: сохранить и показать.
type Options struct {
	Actions   []models.NotificationAction
	Transient bool
	NoDisplay bool
}

type Subscriber func(models.Notification)

type subscriber struct {
	id uint64
	fn Subscriber
}

type Registry struct {
	store  storage.KeyValueStore
	clock  clockwork.Clock
	logger *logrus.Logger

	mu            sync.RWMutex
	notifications []models.Notification
	subscribers   []subscriber
	nextSubID     uint64
	displayer     Displayer
}

// NewRegistry загружает список из StorageKey. Поврежденное значение удаляется.
func NewRegistry(ctx context.Context, store storage.KeyValueStore, clock clockwork.Clock, logger *logrus.Logger) *Registry {
	r := &Registry{
		store:  store,
		clock:  clock,
		logger: logger,
	}
	r.load(ctx)
	return r
}

func (r *Registry) load(ctx context.Context) {
	raw, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.WithError(err).Error("Failed to load stored notifications")
		}
		return
	}

	var stored []models.Notification
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		r.logger.WithError(err).Error("Failed to load stored notifications")
		if err := r.store.Delete(ctx, StorageKey); err != nil {
			r.logger.WithError(err).Error("Failed to clear stored notifications")
		}
		return
	}
	if len(stored) > MaxNotifications {
		stored = stored[:MaxNotifications]
	}
	r.notifications = stored
}

// SetDisplayer выдает разрешение на показ, nil его отзывает
func (r *Registry) SetDisplayer(d Displayer) {
	r.mu.Lock()
	r.displayer = d
	r.mu.Unlock()
}

func (r *Registry) Permission() Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.displayer != nil {
		return PermissionGranted
	}
	return PermissionDenied
}

func (r *Registry) Show(ctx context.Context, typ models.NotificationType, title, message string, opts Options) string {
	n := models.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: r.clock.Now(),
		Actions:   opts.Actions,
	}

	r.mu.Lock()
	r.notifications = slices.Insert(r.notifications, 0, n)
	if len(r.notifications) > MaxNotifications {
		r.notifications = r.notifications[:MaxNotifications]
	}
	if !opts.Transient {
		r.saveLocked(ctx)
	}
	subs := slices.Clone(r.subscribers)
	displayer := r.displayer
	r.mu.Unlock()

	r.notify(subs, n)

	if !opts.NoDisplay && displayer != nil {
		if err := displayer.Display(ctx, n.Clone()); err != nil {
			r.logger.WithError(err).WithField("notification_id", n.ID).Warn("Failed to display notification")
		}
	}
	return n.ID
}

func (r *Registry) Info(ctx context.Context, title, message string, opts Options) string {
	return r.Show(ctx, models.NotificationInfo, title, message, opts)
}

func (r *Registry) Success(ctx context.Context, title, message string, opts Options) string {
	return r.Show(ctx, models.NotificationSuccess, title, message, opts)
}

func (r *Registry) Warning(ctx context.Context, title, message string, opts Options) string {
	return r.Show(ctx, models.NotificationWarning, title, message, opts)
}

// Error показывается всегда
func (r *Registry) Error(ctx context.Context, title, message string, opts Options) string {
	opts.NoDisplay = false
	return r.Show(ctx, models.NotificationError, title, message, opts)
}

func (r *Registry) Subscribe(fn Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.subscribers = append(r.subscribers, subscriber{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subscribers = slices.DeleteFunc(r.subscribers, func(s subscriber) bool { return s.id == id })
	}
}

func (r *Registry) notify(subs []subscriber, notifications ...models.Notification) {
	for _, s := range subs {
		for _, n := range notifications {
			r.deliver(s.fn, n.Clone())
		}
	}
}

func (r *Registry) deliver(fn Subscriber, n models.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"panic":           rec,
			}).Error("Error in notification callback")
		}
	}()
	fn(n)
}

func (r *Registry) All() []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyLocked()
}

func (r *Registry) Unread() []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		if !n.Read {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (r *Registry) UnreadCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAsRead сообщает, было ли уведомление найдено и непрочитано
func (r *Registry) MarkAsRead(ctx context.Context, id string) bool {
	r.mu.Lock()
	idx := slices.IndexFunc(r.notifications, func(n models.Notification) bool { return n.ID == id })
	if idx < 0 || r.notifications[idx].Read {
		r.mu.Unlock()
		return false
	}
	r.notifications[idx].Read = true
	changed := r.notifications[idx].Clone()
	r.saveLocked(ctx)
	subs := slices.Clone(r.subscribers)
	r.mu.Unlock()

	r.notify(subs, changed)
	return true
}

// MarkAllAsRead возвращает число измененных уведомлений. Если что-то изменилось,
// подписчики получают весь список.
func (r *Registry) MarkAllAsRead(ctx context.Context) int {
	r.mu.Lock()
	changed := 0
	for i := range r.notifications {
		if !r.notifications[i].Read {
			r.notifications[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		r.mu.Unlock()
		return 0
	}
	r.saveLocked(ctx)
	snapshot := r.copyLocked()
	subs := slices.Clone(r.subscribers)
	r.mu.Unlock()

	r.notify(subs, snapshot...)
	return changed
}

func (r *Registry) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	idx := slices.IndexFunc(r.notifications, func(n models.Notification) bool { return n.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.notifications = slices.Delete(r.notifications, idx, idx+1)
	r.saveLocked(ctx)
	r.mu.Unlock()
	return true
}

func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
	r.saveLocked(ctx)
}

// IncidentNotification сообщает о смене статуса с действием просмотра
func (r *Registry) IncidentNotification(ctx context.Context, incidentID string, status models.IncidentStatus, message string) string {
	typ := models.NotificationInfo
	if status == models.StatusResolved {
		typ = models.NotificationSuccess
	}
	return r.Show(ctx, typ, "Incident "+incidentID, message, Options{
		Actions: []models.NotificationAction{{
			Label:   "View Details",
			Variant: "primary",
			Command: "incident:view",
			Params:  map[string]string{"incidentId": incidentID},
		}},
	})
}

func (r *Registry) ResponderNotification(ctx context.Context, name string, status models.ResponderStatus) string {
	typ := models.NotificationWarning
	if status == models.ResponderAvailable {
		typ = models.NotificationSuccess
	}
	return r.Show(ctx, typ, "Responder Update", fmt.Sprintf("%s is now %s", name, status), Options{})
}

func (r *Registry) copyLocked() []models.Notification {
	out := make([]models.Notification, len(r.notifications))
	for i, n := range r.notifications {
		out[i] = n.Clone()
	}
	return out
}

// saveLocked вызывается под mu
func (r *Registry) saveLocked(ctx context.Context) {
	list := r.notifications
	if list == nil {
		list = []models.Notification{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		r.logger.WithError(err).Error("Failed to save notifications")
		return
	}
	if err := r.store.Set(ctx, StorageKey, string(data)); err != nil {
		r.logger.WithError(err).Error("Failed to save notifications")
	}
}
