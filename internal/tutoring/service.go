package tutoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/config"
)

const minRejectionReasonLen = 10

type Options struct {
	// Location is the institute's local time zone; "today" is evaluated in it.
	Location      *time.Location
	SessionLength time.Duration
	Now           func() time.Time
	Notifier      Notifier
	Logger        *slog.Logger
}

type Service struct {
	store         Store
	notifier      Notifier
	loc           *time.Location
	sessionLength time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func NewService(store Store, opts Options) *Service {
	svc := &Service{
		store:         store,
		notifier:      opts.Notifier,
		loc:           opts.Location,
		sessionLength: opts.SessionLength,
		now:           opts.Now,
		logger:        config.ResolveLogger(opts.Logger),
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.sessionLength <= 0 {
		svc.sessionLength = time.Hour
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// ParseRequestedStart combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseRequestedStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, apperr.Wrap(err, apperr.InvalidArgument, "requested_date/requested_time are malformed")
	}
	return t, nil
}

func (s *Service) Location() *time.Location { return s.loc }

// Create opens a pending request from studentID to teacherID. The session
// length is fixed by configuration and the requested day must be after today
// in the institute's time zone.
func (s *Service) Create(ctx context.Context, studentID, teacherID int, start time.Time) (Appointment, error) {
	if studentID <= 0 {
		return Appointment{}, apperr.New(apperr.InvalidArgument, "student is required")
	}
	if teacherID == studentID {
		return Appointment{}, apperr.New(apperr.InvalidArgument, "cannot request tutoring from yourself")
	}
	if !s.afterToday(start) {
		return Appointment{}, apperr.New(apperr.InvalidArgument, "requested_date must be after today")
	}

	teacher, err := s.store.User(ctx, teacherID)
	if err != nil {
		return Appointment{}, err
	}
	if teacher == nil {
		return Appointment{}, apperr.New(apperr.InvalidArgument, "teacher does not exist")
	}
	if !teacher.IsTeacher() {
		return Appointment{}, apperr.New(apperr.InvalidArgument, "not a tutor")
	}

	a := Appointment{
		StudentID: studentID,
		TeacherID: teacherID,
		StartTime: start.UTC(),
		EndTime:   start.Add(s.sessionLength).UTC(),
		Status:    StatusPending,
		Teacher:   teacher,
	}
	lockKey := fmt.Sprintf("appointment:pair:%d:%d", studentID, teacherID)
	err = s.store.Atomically(ctx, lockKey, func(tx Tx) error {
		pending, err := tx.HasPending(ctx, studentID, teacherID)
		if err != nil {
			return err
		}
		if pending {
			return apperr.New(apperr.Conflict, "pending request already exists")
		}
		return tx.Insert(ctx, &a)
	})
	if err != nil {
		s.logger.Warn("appointment create failed",
			"event", "appointment_create_failed",
			"module", "tutoring",
			"student_id", studentID,
			"teacher_id", teacherID,
			"error", err.Error(),
		)
		return Appointment{}, err
	}
	s.logger.Info("appointment requested",
		"event", "appointment_created",
		"module", "tutoring",
		"appointment_id", a.ID,
		"student_id", studentID,
		"teacher_id", teacherID,
		"start_time", a.StartTime,
	)
	return a, nil
}

func (s *Service) afterToday(start time.Time) bool {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	st := start.In(s.loc)
	day := time.Date(st.Year(), st.Month(), st.Day(), 0, 0, 0, 0, s.loc)
	return day.After(today)
}

// Accept confirms a pending request. meetURL, when given, must be an http(s) URL.
func (s *Service) Accept(ctx context.Context, actorID, appointmentID int, meetURL *string) (Appointment, error) {
	if meetURL != nil {
		trimmed := strings.TrimSpace(*meetURL)
		if trimmed == "" {
			meetURL = nil
		} else {
			if err := validateMeetURL(trimmed); err != nil {
				return Appointment{}, err
			}
			meetURL = &trimmed
		}
	}
	return s.transition(ctx, actorID, appointmentID, ActionAccept, func(a *Appointment) {
		if meetURL != nil {
			a.MeetURL = meetURL
		}
	})
}

// Reject declines a pending request. The optional reason is stored with it.
func (s *Service) Reject(ctx context.Context, actorID, appointmentID int, reason *string) (Appointment, error) {
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if trimmed == "" {
			reason = nil
		} else {
			if utf8.RuneCountInString(trimmed) < minRejectionReasonLen {
				return Appointment{}, apperr.Newf(apperr.InvalidArgument, "rejection_reason must be at least %d characters", minRejectionReasonLen)
			}
			reason = &trimmed
		}
	}
	return s.transition(ctx, actorID, appointmentID, ActionReject, func(a *Appointment) {
		a.RejectionReason = reason
	})
}

// MarkAttended completes a confirmed appointment.
func (s *Service) MarkAttended(ctx context.Context, actorID, appointmentID int) (Appointment, error) {
	return s.transition(ctx, actorID, appointmentID, ActionMarkAttended, func(a *Appointment) {
		a.Attended = true
	})
}

// transition runs the ownership and state checks and the write under a row
// lock so concurrent transitions on one appointment cannot interleave.
func (s *Service) transition(ctx context.Context, actorID, id int, action Action, mutate func(*Appointment)) (Appointment, error) {
	var out Appointment
	err := s.store.Atomically(ctx, "", func(tx Tx) error {
		a, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return apperr.New(apperr.NotFound, "appointment not found")
		}
		if a.TeacherID != actorID {
			return apperr.New(apperr.PermissionDenied, "only the assigned teacher can change this appointment")
		}
		next, err := Next(a.Status, action)
		if err != nil {
			return err
		}
		a.Status = next
		a.UpdatedAt = s.now().UTC()
		mutate(a)
		if err := tx.Update(ctx, a); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		s.logger.Warn("appointment transition refused",
			"event", "appointment_transition_failed",
			"module", "tutoring",
			"appointment_id", id,
			"actor_id", actorID,
			"action", action.String(),
			"error", err.Error(),
		)
		return Appointment{}, err
	}
	s.logger.Info("appointment transitioned",
		"event", "appointment_transitioned",
		"module", "tutoring",
		"appointment_id", id,
		"actor_id", actorID,
		"action", action.String(),
		"status", string(out.Status),
	)
	s.notify(ctx, out)
	return out, nil
}

func (s *Service) notify(ctx context.Context, a Appointment) {
	if s.notifier == nil {
		return
	}
	student, err := s.store.User(ctx, a.StudentID)
	if err != nil || student == nil {
		s.logger.Warn("appointment notice skipped",
			"event", "appointment_notice_skipped",
			"module", "tutoring",
			"appointment_id", a.ID,
			"error", fmt.Sprint(err),
		)
		return
	}
	if err := s.notifier.AppointmentChanged(ctx, *student, a); err != nil {
		s.logger.Error("appointment notice failed",
			"event", "appointment_notice_failed",
			"module", "tutoring",
			"appointment_id", a.ID,
			"student_id", a.StudentID,
			"error", err.Error(),
		)
	}
}

// ListForTeacher returns teacherID's appointments filtered by a client status
// category (pending, accepted, rejected, completed or all), newest first.
func (s *Service) ListForTeacher(ctx context.Context, teacherID int, filter string) ([]Appointment, error) {
	statuses, err := FilterStatuses(filter)
	if err != nil {
		return nil, err
	}
	return s.store.TeacherAppointments(ctx, TeacherQuery{TeacherID: teacherID, Statuses: statuses})
}

// History returns teacherID's finished appointments, most recently updated first.
func (s *Service) History(ctx context.Context, teacherID int) ([]Appointment, error) {
	return s.store.TeacherAppointments(ctx, TeacherQuery{
		TeacherID: teacherID,
		Statuses:  []Status{StatusCompleted, StatusRejected},
		ByUpdated: true,
	})
}

func (s *Service) ListForStudent(ctx context.Context, studentID int) ([]Appointment, error) {
	return s.store.StudentAppointments(ctx, studentID)
}

func (s *Service) Teachers(ctx context.Context) ([]User, error) {
	return s.store.Teachers(ctx)
}

func validateMeetURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.New(apperr.InvalidArgument, "meet_url must be an http(s) URL")
	}
	return nil
}
