package tutoring

import (
	"strings"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

// Status is the stored lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Statuses lists every valid stored status.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCompleted}

// ParseStatus reads a stored status. Rows written by older revisions may hold
// "cancelled", which is the same state as rejected.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted:
		return st, nil
	case "cancelled":
		return StatusRejected, nil
	default:
		return "", apperr.Newf(apperr.InvalidArgument, "unknown appointment status %q", s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// External is the client-facing name of s. This is the only place the stored
// and external vocabularies are translated:
//
//	pending   -> pending
//	confirmed -> accepted
//	rejected  -> rejected
//	completed -> completed
func (s Status) External() string {
	if s == StatusConfirmed {
		return "accepted"
	}
	return string(s)
}

// FilterStatuses maps a client filter category onto stored statuses. An empty
// filter or "all" means no filtering and yields nil.
func FilterStatuses(filter string) ([]Status, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", "all":
		return nil, nil
	case "pending":
		return []Status{StatusPending}, nil
	case "accepted", "confirmed":
		return []Status{StatusConfirmed}, nil
	case "rejected":
		return []Status{StatusRejected}, nil
	case "completed":
		return []Status{StatusCompleted}, nil
	default:
		return nil, apperr.Newf(apperr.InvalidArgument, "unknown status filter %q", filter)
	}
}

// Action is a teacher-side transition request.
type Action int

const (
	ActionAccept Action = iota + 1
	ActionReject
	ActionMarkAttended
)

// Actions lists every transition request.
var Actions = []Action{ActionAccept, ActionReject, ActionMarkAttended}

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionReject:
		return "reject"
	case ActionMarkAttended:
		return "mark_attended"
	default:
		return "unknown"
	}
}

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionAccept: StatusConfirmed,
		ActionReject: StatusRejected,
	},
	StatusConfirmed: {
		ActionMarkAttended: StatusCompleted,
	},
}

var invalidStateMessages = map[Action]string{
	ActionAccept:       "only pending requests can be accepted",
	ActionReject:       "only pending requests can be rejected",
	ActionMarkAttended: "only confirmed appointments can be marked",
}

// Next returns the status reached by applying a to from, or an InvalidState
// error when the table has no such edge.
func Next(from Status, a Action) (Status, error) {
	if to, ok := transitions[from][a]; ok {
		return to, nil
	}
	msg, ok := invalidStateMessages[a]
	if !ok {
		msg = "transition not allowed"
	}
	return "", apperr.New(apperr.InvalidState, msg)
}
