package attendance

import (
	"math"
	"strings"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type CheckInRequest struct {
	WorkerID       string    `json:"-"`
	ClinicID       *string   `json:"clinic_id,omitempty"`
	IdentitySample []float64 `json:"identity_sample"`
	SSID           string    `json:"ssid"`
	BSSID          string    `json:"bssid"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WorkerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "worker_id",
			Message: "worker_id is required",
		})
	}

	errs = append(errs, validateSample(r.IdentitySample)...)

	if r.ClinicID != nil && validator.IsEmpty(*r.ClinicID) {
		errs = append(errs, validator.ValidationError{
			Field:   "clinic_id",
			Message: "clinic_id must not be blank",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	WorkerID       string    `json:"-"`
	ShiftLabel     *string   `json:"shift,omitempty"` // picks the open record when a clinician has two
	IdentitySample []float64 `json:"identity_sample"`
	SSID           string    `json:"ssid"`
	BSSID          string    `json:"bssid"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WorkerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "worker_id",
			Message: "worker_id is required",
		})
	}

	errs = append(errs, validateSample(r.IdentitySample)...)

	if r.ShiftLabel != nil && !validator.IsInSlice(strings.ToUpper(*r.ShiftLabel), shift.LabelValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift",
			Message: "shift must be one of: " + strings.Join(shift.LabelValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateSample(sample []float64) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if len(sample) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "identity_sample",
			Message: "identity_sample is required",
		})
		return errs
	}
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, validator.ValidationError{
				Field:   "identity_sample",
				Message: "identity_sample must contain finite numbers only",
			})
			break
		}
	}
	return errs
}

// ========================================
// HR DTOs
// ========================================

// UpdateAttendanceRequest lets HR fix check-in/check-out times; the record is recalculated.
type UpdateAttendanceRequest struct {
	ID       string  `json:"-"`
	ActorID  string  `json:"-"`
	CheckIn  *string `json:"check_in,omitempty"`  // RFC3339
	CheckOut *string `json:"check_out,omitempty"` // RFC3339
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CheckIn == nil && r.CheckOut == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "at least one of check_in or check_out is required",
		})
	}

	if r.CheckIn != nil {
		if _, valid := validator.IsValidDateTime(*r.CheckIn); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in must be an ISO8601 timestamp",
			})
		}
	}

	if r.CheckOut != nil {
		if _, valid := validator.IsValidDateTime(*r.CheckOut); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be an ISO8601 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type OverrideStatusRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

func (r *OverrideStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if !validator.IsInSlice(r.Status, OverridableStatuses) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(OverridableStatuses, ", "),
		})
	}

	if validator.IsEmpty(r.Note) {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "note is required for a status override",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// EXPLANATION DTOs
// ========================================

type SubmitExplanationRequest struct {
	ID       string `json:"-"`
	WorkerID string `json:"-"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
}

func (r *SubmitExplanationRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Type == "" {
		r.Type = string(ExplanationMissingCheckOut)
	}
	if strings.ToUpper(r.Type) != string(ExplanationMissingCheckOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be " + string(ExplanationMissingCheckOut),
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ResolveExplanationRequest struct {
	ID           string  `json:"-"`
	ActorID      string  `json:"-"`
	Decision     string  `json:"decision"`                 // APPROVE, REJECT
	CheckOutTime *string `json:"check_out_time,omitempty"` // HH:MM on the work date
	AdminNote    *string `json:"admin_note,omitempty"`
}

func (r *ResolveExplanationRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Decision = strings.ToUpper(strings.TrimSpace(r.Decision))
	if r.Decision != string(DecisionApprove) && r.Decision != string(DecisionReject) {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be one of: APPROVE, REJECT",
		})
	}

	if r.CheckOutTime != nil {
		if _, err := shift.ParseTimeOfDay(*r.CheckOutTime); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out_time",
				Message: "check_out_time must be in HH:MM format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// READ MODEL
// ========================================

type ExplanationEntryResponse struct {
	Kind      string  `json:"kind"`
	Type      string  `json:"type,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Actor     string  `json:"actor"`
	Timestamp string  `json:"timestamp"`
	AdminNote *string `json:"admin_note,omitempty"`
	Status    *string `json:"status,omitempty"`
	Credited  bool    `json:"credited,omitempty"`
}

type AttendanceResponse struct {
	ID                    string                     `json:"id"`
	WorkerID              string                     `json:"worker_id"`
	ClinicID              string                     `json:"clinic_id"`
	WorkDate              string                     `json:"work_date"`
	Shift                 string                     `json:"shift"`
	Phase                 string                     `json:"phase"`
	CheckIn               *string                    `json:"check_in,omitempty"`
	CheckOut              *string                    `json:"check_out,omitempty"`
	Status                string                     `json:"status"`
	LateMinutes           int                        `json:"late_minutes"`
	EarlyMinutes          int                        `json:"early_minutes"`
	LunchDeductionMinutes int                        `json:"lunch_deduction_minutes"`
	ActualWorkedHours     string                     `json:"actual_worked_hours"`
	ExpectedWorkedHours   string                     `json:"expected_worked_hours"`
	IdentityScore         *float64                   `json:"identity_score,omitempty"`
	Verification          *string                    `json:"verification,omitempty"`
	Note                  *string                    `json:"note,omitempty"`
	Explanations          []ExplanationEntryResponse `json:"explanations"`
	CreatedAt             string                     `json:"created_at"`
	UpdatedAt             string                     `json:"updated_at"`
}

type AttendanceFilter struct {
	ClinicID  *string `json:"clinic_id,omitempty"`
	WorkerID  *string `json:"worker_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`
	Shift     *string `json:"shift,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // work_date, check_in, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var sortFields = []string{"work_date", "check_in", "status"}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		upper := strings.ToUpper(*f.Status)
		f.Status = &upper
		if !validator.IsInSlice(upper, OverridableStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(OverridableStatuses, ", "),
			})
		}
	}

	if f.Shift != nil {
		upper := strings.ToUpper(*f.Shift)
		f.Shift = &upper
		if !validator.IsInSlice(upper, shift.LabelValues) {
			errs = append(errs, validator.ValidationError{
				Field:   "shift",
				Message: "shift must be one of: " + strings.Join(shift.LabelValues, ", "),
			})
		}
	}

	for field, value := range map[string]*string{"start_date": f.StartDate, "end_date": f.EndDate} {
		if value == nil || *value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy == "" {
		f.SortBy = "work_date"
	} else if !validator.IsInSlice(f.SortBy, sortFields) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_by",
			Message: "sort_by must be one of: " + strings.Join(sortFields, ", "),
		})
	}

	if f.SortOrder == "" {
		f.SortOrder = "desc"
	} else if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_order",
			Message: "sort_order must be one of: asc, desc",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}
