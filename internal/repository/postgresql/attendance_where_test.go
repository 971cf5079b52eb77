package postgresql

import (
	"fmt"
	"testing"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestBuildAttendanceWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    attendance.AttendanceFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no filter",
			wantWhere: "TRUE",
		},
		{
			name: "worker and date range",
			filter: attendance.AttendanceFilter{
				WorkerID:  strPtr("w1"),
				StartDate: strPtr("2025-03-01"),
				EndDate:   strPtr("2025-03-31"),
			},
			wantWhere: "TRUE AND a.worker_id = $1 AND a.work_date >= $2::date AND a.work_date <= $3::date",
			wantArgs:  []interface{}{"w1", "2025-03-01", "2025-03-31"},
		},
		{
			name: "empty values are ignored",
			filter: attendance.AttendanceFilter{
				ClinicID: strPtr(""),
				Status:   strPtr("LATE"),
				Shift:    strPtr("MORNING"),
			},
			wantWhere: "TRUE AND a.status = $1 AND a.shift_label = $2",
			wantArgs:  []interface{}{"LATE", "MORNING"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildAttendanceWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPgErrorCode(t *testing.T) {
	assert.Equal(t, "", pgErrorCode(nil))
	assert.Equal(t, "", pgErrorCode(assert.AnError))

	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})
	assert.Equal(t, codeUniqueViolation, pgErrorCode(wrapped))
}
