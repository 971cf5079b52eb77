package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// GetAttendance returns one record; non-HR callers only see their own.
	GetAttendance(ctx context.Context, id string, requesterWorkerID *string) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// UpdateAttendance edits times (HR) and re-runs classification and hours.
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)
	OverrideStatus(ctx context.Context, req OverrideStatusRequest) (AttendanceResponse, error)

	SubmitExplanation(ctx context.Context, req SubmitExplanationRequest) (AttendanceResponse, error)
	ResolveExplanation(ctx context.Context, req ResolveExplanationRequest) (AttendanceResponse, error)
}
