// Package notify tells students when a teacher acts on their tutoring request.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

// Message renders the notice text for a's current status.
// Times are shown in loc, or UTC when loc is nil.
func Message(to tutoring.User, a tutoring.Appointment, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	when := a.StartTime.In(loc).Format("2006-01-02 15:04")
	teacher := "your teacher"
	if a.Teacher != nil && a.Teacher.Name != "" {
		teacher = a.Teacher.Name
	}

	switch a.Status {
	case tutoring.StatusConfirmed:
		msg := fmt.Sprintf("Hi %s, %s accepted your tutoring session on %s.", to.Name, teacher, when)
		if a.MeetURL != nil {
			msg += " Join: " + *a.MeetURL
		}
		return msg
	case tutoring.StatusRejected:
		msg := fmt.Sprintf("Hi %s, %s could not take your tutoring session on %s.", to.Name, teacher, when)
		if a.RejectionReason != nil {
			msg += " Reason: " + *a.RejectionReason
		}
		return msg
	case tutoring.StatusCompleted:
		return fmt.Sprintf("Hi %s, your tutoring session on %s was marked as attended.", to.Name, when)
	default:
		return fmt.Sprintf("Hi %s, your tutoring request for %s is %s.", to.Name, when, a.Status.External())
	}
}

// LogNotifier records notices in the log. It is used when SMS is not configured.
type LogNotifier struct {
	loc    *time.Location
	logger *slog.Logger
}

func NewLogNotifier(loc *time.Location, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{loc: loc, logger: config.ResolveLogger(logger)}
}

func (n *LogNotifier) AppointmentChanged(_ context.Context, to tutoring.User, a tutoring.Appointment) error {
	n.logger.Info("appointment notice",
		"event", "appointment_notice",
		"module", "notify",
		"channel", "log",
		"appointment_id", a.ID,
		"student_id", to.ID,
		"status", a.Status.External(),
		"message", Message(to, a, n.loc),
	)
	return nil
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier sends notices through Twilio. Students without a phone number
// fall back to the log notifier.
type SMSNotifier struct {
	api      messageCreator
	from     string
	loc      *time.Location
	fallback *LogNotifier
	logger   *slog.Logger
}

func NewSMSNotifier(accountSID, authToken, from string, loc *time.Location, logger *slog.Logger) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newSMSNotifier(client.Api, from, loc, logger)
}

func newSMSNotifier(api messageCreator, from string, loc *time.Location, logger *slog.Logger) *SMSNotifier {
	logger = config.ResolveLogger(logger)
	return &SMSNotifier{api: api, from: from, loc: loc, fallback: NewLogNotifier(loc, logger), logger: logger}
}

func (n *SMSNotifier) AppointmentChanged(ctx context.Context, to tutoring.User, a tutoring.Appointment) error {
	if to.Phone == "" {
		return n.fallback.AppointmentChanged(ctx, to, a)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to.Phone)
	params.SetFrom(n.from)
	params.SetBody(Message(to, a, n.loc))

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("notify: twilio send to student %d: %w", to.ID, err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.logger.Info("appointment notice sent",
		"event", "appointment_notice",
		"module", "notify",
		"channel", "sms",
		"appointment_id", a.ID,
		"student_id", to.ID,
		"message_sid", sid,
	)
	return nil
}

// Multi delivers a notice on every channel. Each channel is attempted even
// when an earlier one fails.
type Multi []tutoring.Notifier

func (m Multi) AppointmentChanged(ctx context.Context, to tutoring.User, a tutoring.Appointment) error {
	var errs []error
	for _, n := range m {
		if err := n.AppointmentChanged(ctx, to, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the channels that have credentials configured, or the log
// notifier when none do.
func New(cfg config.Config, logger *slog.Logger) tutoring.Notifier {
	var channels Multi
	if cfg.TwilioEnabled() {
		channels = append(channels, NewSMSNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.Location, logger))
	}
	if cfg.SendgridEnabled() {
		channels = append(channels, NewEmailNotifier(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress, cfg.Location, logger))
	}
	switch len(channels) {
	case 0:
		return NewLogNotifier(cfg.Location, logger)
	case 1:
		return channels[0]
	default:
		return channels
	}
}
