package attendance

import (
	"fmt"
	"strings"
	"time"
)

type EntryKind string

const (
	EntryRequest  EntryKind = "REQUEST"
	EntryApproved EntryKind = "APPROVED"
	EntryRejected EntryKind = "REJECTED"
	EntryOverride EntryKind = "OVERRIDE"
)

type ExplanationType string

// Only missing check-outs can be explained.
const ExplanationMissingCheckOut ExplanationType = "MISSING_CHECK_OUT"

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ExplanationEntry is one step of the explanation/approval workflow.
type ExplanationEntry struct {
	Kind      EntryKind       `json:"kind"`
	Type      ExplanationType `json:"type,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Actor     string          `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	AdminNote *string         `json:"admin_note,omitempty"`
	Status    *Status         `json:"status,omitempty"` // set on OVERRIDE
	// Credited marks an approval that turned a LATE record into APPROVED_LATE;
	// its late minutes count as worked time.
	Credited bool `json:"credited,omitempty"`
}

// ExplanationLog is append-only and ordered by Timestamp.
type ExplanationLog []ExplanationEntry

// Pending returns the latest request that has not been resolved yet.
func (l ExplanationLog) Pending() (ExplanationEntry, bool) {
	var pending *ExplanationEntry
	for i := range l {
		switch l[i].Kind {
		case EntryRequest:
			pending = &l[i]
		case EntryApproved, EntryRejected:
			pending = nil
		}
	}
	if pending == nil {
		return ExplanationEntry{}, false
	}
	return *pending, true
}

func (l ExplanationLog) HasApproved() bool {
	for _, e := range l {
		if e.Kind == EntryApproved {
			return true
		}
	}
	return false
}

// LateCredited reports whether an approval credited the late minutes.
func (l ExplanationLog) LateCredited() bool {
	for _, e := range l {
		if e.Kind == EntryApproved && e.Credited {
			return true
		}
	}
	return false
}

// Note renders the log using the bracket-tag convention consumers already parse:
// a resolved request is shown as its resolution.
func (l ExplanationLog) Note() string {
	lines := make([]string, 0, len(l))
	open := -1
	for _, e := range l {
		switch e.Kind {
		case EntryRequest:
			lines = append(lines, fmt.Sprintf("[EXPLANATION_REQUEST:%s] %s", e.Type, e.Reason))
			open = len(lines) - 1
		case EntryApproved, EntryRejected:
			line := fmt.Sprintf("[%s] %s", e.Kind, e.Reason)
			if e.AdminNote != nil && *e.AdminNote != "" {
				line += " | " + *e.AdminNote
			}
			if open >= 0 {
				lines[open] = line
				open = -1
			} else {
				lines = append(lines, line)
			}
		case EntryOverride:
			status := ""
			if e.Status != nil {
				status = string(*e.Status)
			}
			line := fmt.Sprintf("[OVERRIDE:%s]", status)
			if e.AdminNote != nil {
				line += " " + *e.AdminNote
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
