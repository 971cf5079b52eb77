package http

import (
	"net/http"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	OverrideStatus(w http.ResponseWriter, r *http.Request)
	SubmitExplanation(w http.ResponseWriter, r *http.Request)
	ResolveExplanation(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.WorkerID == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req attendance.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.WorkerID = *p.WorkerID

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.WorkerID == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req attendance.CheckOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.WorkerID = *p.WorkerID

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := parseAttendanceFilter(r)

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeAttendanceList(w, results)
}

func writeAttendanceList(w http.ResponseWriter, results attendance.ListAttendanceResponse) {
	response.SuccessWithMeta(w, results.Attendances, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// GetMyAttendance lists the caller's own records; worker_id in the query is ignored.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.WorkerID == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	filter := parseAttendanceFilter(r)
	filter.WorkerID = p.WorkerID
	filter.ClinicID = nil

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeAttendanceList(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var requester *string
	if !p.IsHR() {
		if p.WorkerID == nil {
			response.Forbidden(w, "Account is not linked to a worker profile")
			return
		}
		requester = p.WorkerID
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), chi.URLParam(r, "id"), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements AttendanceHandler.
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req attendance.UpdateAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = p.UserID

	result, err := h.attendanceService.UpdateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated successfully", result)
}

// OverrideStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req attendance.OverrideStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = p.UserID

	result, err := h.attendanceService.OverrideStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance status overridden", result)
}

// SubmitExplanation implements AttendanceHandler.
func (h *attendanceHandlerImpl) SubmitExplanation(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.WorkerID == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req attendance.SubmitExplanationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.WorkerID = *p.WorkerID

	result, err := h.attendanceService.SubmitExplanation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Explanation submitted", result)
}

// ResolveExplanation implements AttendanceHandler.
func (h *attendanceHandlerImpl) ResolveExplanation(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req attendance.ResolveExplanationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = p.UserID

	result, err := h.attendanceService.ResolveExplanation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Explanation resolved", result)
}

func parseAttendanceFilter(r *http.Request) attendance.AttendanceFilter {
	q := r.URL.Query()
	filter := attendance.AttendanceFilter{
		ClinicID:  optionalQuery(r, "clinic_id"),
		WorkerID:  optionalQuery(r, "worker_id"),
		StartDate: optionalQuery(r, "start_date"),
		EndDate:   optionalQuery(r, "end_date"),
		Status:    optionalQuery(r, "status"),
		Shift:     optionalQuery(r, "shift"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	return filter
}
