package notification

import (
	"time"
)

// CreateNotificationRequest is queued after the attendance transaction commits.
type CreateNotificationRequest struct {
	RecipientID  string
	ActorID      *string
	AttendanceID *string
	Type         NotificationType
	Title        string
	Message      string
	Data         map[string]interface{}
}

type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

type NotificationResponse struct {
	ID           string                 `json:"id"`
	Type         NotificationType       `json:"type"`
	AttendanceID *string                `json:"attendance_id,omitempty"`
	Title        string                 `json:"title"`
	Message      string                 `json:"message"`
	Data         map[string]interface{} `json:"data,omitempty"`
	IsRead       bool                   `json:"is_read"`
	ReadAt       *time.Time             `json:"read_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// SSEEvent is one frame on the notification stream.
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}
