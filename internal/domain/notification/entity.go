package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeCheckedIn           NotificationType = "attendance_checked_in"
	TypeCheckedOut          NotificationType = "attendance_checked_out"
	TypeMarkedAbsent        NotificationType = "attendance_marked_absent"
	TypeStatusOverridden    NotificationType = "attendance_status_overridden"
	TypeExplanationApproved NotificationType = "explanation_approved"
	TypeExplanationRejected NotificationType = "explanation_rejected"
)

// Notification is addressed to a worker.
type Notification struct {
	ID           string
	RecipientID  string
	ActorID      *string
	AttendanceID *string
	Type         NotificationType
	Title        string
	Message      string
	Data         map[string]interface{}
	IsRead       bool
	ReadAt       *time.Time
	CreatedAt    time.Time
}
