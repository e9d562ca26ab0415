package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

const subjectPrefix = "[Institute] "

type mailSender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier mails notices through SendGrid. Students without an email
// address fall back to the log notifier.
type EmailNotifier struct {
	client   mailSender
	from     *sgmail.Email
	loc      *time.Location
	fallback *LogNotifier
	logger   *slog.Logger
}

func NewEmailNotifier(apiKey, fromName, fromAddress string, loc *time.Location, logger *slog.Logger) *EmailNotifier {
	return newEmailNotifier(sendgrid.NewSendClient(apiKey), sgmail.NewEmail(fromName, fromAddress), loc, logger)
}

func newEmailNotifier(client mailSender, from *sgmail.Email, loc *time.Location, logger *slog.Logger) *EmailNotifier {
	logger = config.ResolveLogger(logger)
	return &EmailNotifier{client: client, from: from, loc: loc, fallback: NewLogNotifier(loc, logger), logger: logger}
}

func subject(a tutoring.Appointment) string {
	switch a.Status {
	case tutoring.StatusConfirmed:
		return subjectPrefix + "Tutoring session accepted"
	case tutoring.StatusRejected:
		return subjectPrefix + "Tutoring request declined"
	case tutoring.StatusCompleted:
		return subjectPrefix + "Tutoring session completed"
	default:
		return subjectPrefix + "Tutoring request update"
	}
}

func (n *EmailNotifier) prepare(to tutoring.User, a tutoring.Appointment) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = subject(a)
	p.AddTos(sgmail.NewEmail(to.Name, to.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", Message(to, a, n.loc)))
	return m
}

func (n *EmailNotifier) AppointmentChanged(ctx context.Context, to tutoring.User, a tutoring.Appointment) error {
	if to.Email == "" {
		return n.fallback.AppointmentChanged(ctx, to, a)
	}

	res, err := n.client.Send(n.prepare(to, a))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send to student %d: %w", to.ID, err)
	}
	if res != nil && res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notify: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	n.logger.Info("appointment notice sent",
		"event", "appointment_notice",
		"module", "notify",
		"channel", "email",
		"appointment_id", a.ID,
		"student_id", to.ID,
	)
	return nil
}
