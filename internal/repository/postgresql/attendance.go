package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Hours travel as text so numeric(5,2) round-trips exactly through decimal.Decimal.
const attendanceColumns = `
	a.id, a.worker_id, a.clinic_id, a.work_date, a.shift_label,
	a.check_in, a.check_out, a.status,
	a.late_minutes, a.early_minutes, a.lunch_deduction_minutes,
	a.actual_worked_hours::text, a.expected_worked_hours::text,
	a.identity_score, a.verification_status, a.explanations, a.note,
	a.created_at, a.updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att                   attendance.Attendance
		label, status         string
		actualHours, expHours string
		verificationStatus    *string
		explanations          []byte
	)

	err := row.Scan(
		&att.ID, &att.WorkerID, &att.ClinicID, &att.WorkDate, &label,
		&att.CheckIn, &att.CheckOut, &status,
		&att.LateMinutes, &att.EarlyMinutes, &att.LunchDeductionMinutes,
		&actualHours, &expHours,
		&att.IdentityScore, &verificationStatus, &explanations, &att.Note,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.ShiftLabel = shift.Label(label)
	att.Status = attendance.Status(status)
	if verificationStatus != nil {
		v := attendance.VerificationStatus(*verificationStatus)
		att.Verification = &v
	}
	if att.ActualWorkedHours, err = decimal.NewFromString(actualHours); err != nil {
		return attendance.Attendance{}, fmt.Errorf("invalid actual_worked_hours %q: %w", actualHours, err)
	}
	if att.ExpectedWorkedHours, err = decimal.NewFromString(expHours); err != nil {
		return attendance.Attendance{}, fmt.Errorf("invalid expected_worked_hours %q: %w", expHours, err)
	}
	if len(explanations) > 0 {
		if err := json.Unmarshal(explanations, &att.Explanations); err != nil {
			return attendance.Attendance{}, fmt.Errorf("invalid explanations: %w", err)
		}
	}

	return att, nil
}

func marshalExplanations(log attendance.ExplanationLog) ([]byte, error) {
	if log == nil {
		log = attendance.ExplanationLog{}
	}
	return json.Marshal(log)
}

func verificationArg(v *attendance.VerificationStatus) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	explanations, err := marshalExplanations(newAttendance.Explanations)
	if err != nil {
		return attendance.Attendance{}, err
	}

	query := `
		INSERT INTO attendances (
			worker_id, clinic_id, work_date, shift_label, check_in, check_out, status,
			late_minutes, early_minutes, lunch_deduction_minutes,
			actual_worked_hours, expected_worked_hours,
			identity_score, verification_status, explanations, note
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12::numeric, $13, $14, $15, $16
		) RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.WorkerID,
		newAttendance.ClinicID,
		newAttendance.WorkDate,
		string(newAttendance.ShiftLabel),
		newAttendance.CheckIn,
		newAttendance.CheckOut,
		string(newAttendance.Status),
		newAttendance.LateMinutes,
		newAttendance.EarlyMinutes,
		newAttendance.LunchDeductionMinutes,
		newAttendance.ActualWorkedHours.StringFixed(2),
		newAttendance.ExpectedWorkedHours.StringFixed(2),
		newAttendance.IdentityScore,
		verificationArg(newAttendance.Verification),
		explanations,
		newAttendance.Note,
	).Scan(&newAttendance.ID, &newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return attendance.Attendance{}, attendance.ErrDuplicateRecord
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// CreateAbsence implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateAbsence(ctx context.Context, absence attendance.Attendance) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			worker_id, clinic_id, work_date, shift_label, status,
			actual_worked_hours, expected_worked_hours
		) VALUES ($1, $2, $3, $4, $5, 0, $6::numeric)
		ON CONFLICT (worker_id, work_date, shift_label) DO NOTHING
	`

	tag, err := q.Exec(ctx, query,
		absence.WorkerID,
		absence.ClinicID,
		absence.WorkDate,
		string(absence.ShiftLabel),
		string(absence.Status),
		absence.ExpectedWorkedHours.StringFixed(2),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create absence: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (a *attendanceRepository) getByID(ctx context.Context, id string, forUpdate bool) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidTextRepresent {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return a.getByID(ctx, id, true)
}

func (a *attendanceRepository) findByWorkerDateShift(ctx context.Context, workerID string, date time.Time, label shift.Label, forUpdate bool) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.worker_id = $1
		  AND a.work_date = $2
		  AND a.shift_label = $3
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, workerID, date, string(label)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by worker, date and shift: %w", err)
	}

	return &att, nil
}

// FindByWorkerDateShift implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByWorkerDateShift(ctx context.Context, workerID string, date time.Time, label shift.Label) (*attendance.Attendance, error) {
	return a.findByWorkerDateShift(ctx, workerID, date, label, false)
}

// FindByWorkerDateShiftForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByWorkerDateShiftForUpdate(ctx context.Context, workerID string, date time.Time, label shift.Label) (*attendance.Attendance, error) {
	return a.findByWorkerDateShift(ctx, workerID, date, label, true)
}

// FindLatestCheckedInForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindLatestCheckedInForUpdate(ctx context.Context, workerID string, label *shift.Label) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	where := "a.worker_id = $1 AND a.check_in IS NOT NULL"
	args := []interface{}{workerID}
	if label != nil {
		where += " AND a.shift_label = $2"
		args = append(args, string(*label))
	}

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE ` + where + `
		ORDER BY a.check_in DESC
		LIMIT 1
		FOR UPDATE
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest checked-in attendance: %w", err)
	}

	return &att, nil
}

// AttachCheckIn implements attendance.AttendanceRepository. The check_in IS NULL
// guard is re-evaluated at write time so a racing check-in cannot be overwritten.
func (a *attendanceRepository) AttachCheckIn(ctx context.Context, att attendance.Attendance) (bool, error) {
	q := GetQuerier(ctx, a.db)

	explanations, err := marshalExplanations(att.Explanations)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE attendances SET
			check_in = $2,
			status = $3,
			late_minutes = $4,
			expected_worked_hours = $5::numeric,
			identity_score = $6,
			verification_status = $7,
			explanations = $8,
			note = $9,
			updated_at = NOW()
		WHERE id = $1 AND check_in IS NULL
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.CheckIn,
		string(att.Status),
		att.LateMinutes,
		att.ExpectedWorkedHours.StringFixed(2),
		att.IdentityScore,
		verificationArg(att.Verification),
		explanations,
		att.Note,
	)
	if err != nil {
		return false, fmt.Errorf("failed to attach check-in: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	explanations, err := marshalExplanations(att.Explanations)
	if err != nil {
		return err
	}

	query := `
		UPDATE attendances SET
			check_in = $2,
			check_out = $3,
			status = $4,
			late_minutes = $5,
			early_minutes = $6,
			lunch_deduction_minutes = $7,
			actual_worked_hours = $8::numeric,
			expected_worked_hours = $9::numeric,
			identity_score = $10,
			verification_status = $11,
			explanations = $12,
			note = $13,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.CheckIn,
		att.CheckOut,
		string(att.Status),
		att.LateMinutes,
		att.EarlyMinutes,
		att.LunchDeductionMinutes,
		att.ActualWorkedHours.StringFixed(2),
		att.ExpectedWorkedHours.StringFixed(2),
		att.IdentityScore,
		verificationArg(att.Verification),
		explanations,
		att.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// UpdateAbsenceStatus implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateAbsenceStatus(ctx context.Context, id string, status attendance.Status) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND check_in IS NULL
	`

	if _, err := q.Exec(ctx, query, id, string(status)); err != nil {
		return fmt.Errorf("failed to update absence status: %w", err)
	}

	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere, args := buildAttendanceWhere(filter)
	argIdx := len(args) + 1

	countQuery := "SELECT COUNT(*) FROM attendances a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	orderByField := "a.work_date"
	switch filter.SortBy {
	case "check_in":
		orderByField = "a.check_in"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances a
		WHERE %s
		ORDER BY %s %s, a.shift_label ASC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

// buildAttendanceWhere renders the filter as a WHERE clause with positional args.
func buildAttendanceWhere(filter attendance.AttendanceFilter) (string, []interface{}) {
	baseWhere := "TRUE"
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		baseWhere += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.ClinicID != nil && *filter.ClinicID != "" {
		add("a.clinic_id = $%d", *filter.ClinicID)
	}
	if filter.WorkerID != nil && *filter.WorkerID != "" {
		add("a.worker_id = $%d", *filter.WorkerID)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		add("a.work_date >= $%d::date", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		add("a.work_date <= $%d::date", *filter.EndDate)
	}
	if filter.Status != nil && *filter.Status != "" {
		add("a.status = $%d", *filter.Status)
	}
	if filter.Shift != nil && *filter.Shift != "" {
		add("a.shift_label = $%d", *filter.Shift)
	}

	return baseWhere, args
}
