package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
)

type leaveLookup struct {
	db *database.DB
}

func NewLeaveLookup(db *database.DB) leave.LeaveLookup {
	return &leaveLookup{db: db}
}

// HasApprovedLeave implements leave.LeaveLookup. A leave row without a shift
// covers the whole day; a nil label matches any leave on the date.
func (l *leaveLookup) HasApprovedLeave(ctx context.Context, workerID string, date time.Time, label *shift.Label) (bool, error) {
	q := GetQuerier(ctx, l.db)

	var labelArg *string
	if label != nil {
		s := string(*label)
		labelArg = &s
	}

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM approved_leaves
			WHERE worker_id = $1
			  AND $2::date BETWEEN start_date AND end_date
			  AND (shift_label IS NULL OR $3::text IS NULL OR shift_label = $3::text)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, workerID, date, labelArg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved leave: %w", err)
	}

	return exists, nil
}
