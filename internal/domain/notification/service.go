package notification

import (
	"context"
)

// Service delivers attendance notifications. Queueing never blocks the caller.
type Service interface {
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error

	GetNotifications(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	MarkAsRead(ctx context.Context, recipientID string, req MarkAsReadRequest) error

	Subscribe(ctx context.Context, recipientID string) (<-chan SSEEvent, func())

	Stop()
}
