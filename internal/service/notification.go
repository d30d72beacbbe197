package service

import (
	"context"

	"github.com/shenikar/resq_dispatch/internal/models"
)

// NotificationService - операции над лентой уведомлений, доступные через API
type NotificationService interface {
	All() []models.Notification
	UnreadCount() int
	MarkAsRead(ctx context.Context, id string) bool
	MarkAllAsRead(ctx context.Context) int
	Remove(ctx context.Context, id string) bool
	Clear(ctx context.Context)
}
