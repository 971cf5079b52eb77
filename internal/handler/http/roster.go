package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/response"
)

// RosterHandler exposes the reconciliation jobs for manual HR triggers.
type RosterHandler interface {
	Reconcile(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
	MarkAbsentStaff(w http.ResponseWriter, r *http.Request)
}

type rosterHandlerImpl struct {
	reconciler roster.ReconciliationService
	loc        *time.Location
	now        func() time.Time
}

func NewRosterHandler(reconciler roster.ReconciliationService, loc *time.Location) RosterHandler {
	return &rosterHandlerImpl{
		reconciler: reconciler,
		loc:        loc,
		now:        time.Now,
	}
}

func (h *rosterHandlerImpl) workDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var req roster.ReconcileRequest
	if !decodeJSON(w, r, &req) {
		return time.Time{}, false
	}
	date, err := req.WorkDate(h.now(), h.loc)
	if err != nil {
		response.HandleError(w, err)
		return time.Time{}, false
	}
	return date, true
}

// Reconcile implements RosterHandler.
func (h *rosterHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	date, ok := h.workDate(w, r)
	if !ok {
		return
	}

	summary, err := h.reconciler.Reconcile(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Roster reconciled", summary)
}

// Reset implements RosterHandler.
func (h *rosterHandlerImpl) Reset(w http.ResponseWriter, r *http.Request) {
	date, ok := h.workDate(w, r)
	if !ok {
		return
	}

	restored, err := h.reconciler.DailyReset(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Roster reset", map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"restored": restored,
	})
}

// MarkAbsentStaff implements RosterHandler.
func (h *rosterHandlerImpl) MarkAbsentStaff(w http.ResponseWriter, r *http.Request) {
	date, ok := h.workDate(w, r)
	if !ok {
		return
	}

	marked, err := h.reconciler.MarkAbsentStaff(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Staff absences recorded", map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"marked": marked,
	})
}
