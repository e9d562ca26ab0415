package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

type fakeMessages struct {
	sent []*openapi.CreateMessageParams
	err  error
}

func (f *fakeMessages) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func confirmed() tutoring.Appointment {
	meet := "https://meet.example.com/x"
	return tutoring.Appointment{
		ID:        5,
		StartTime: time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC),
		Status:    tutoring.StatusConfirmed,
		MeetURL:   &meet,
		Teacher:   &tutoring.User{Name: "Luis"},
	}
}

func TestMessage(t *testing.T) {
	student := tutoring.User{Name: "Ana"}
	lima := time.FixedZone("PET", -5*60*60)

	msg := Message(student, confirmed(), lima)
	assert.Equal(t, "Hi Ana, Luis accepted your tutoring session on 2026-10-17 10:00. Join: https://meet.example.com/x", msg)

	rejected := confirmed()
	rejected.Status = tutoring.StatusRejected
	reason := "I am away that week"
	rejected.RejectionReason = &reason
	assert.Contains(t, Message(student, rejected, nil), "Reason: I am away that week")
	assert.Contains(t, Message(student, rejected, nil), "2026-10-17 15:00")

	done := confirmed()
	done.Status = tutoring.StatusCompleted
	assert.Contains(t, Message(student, done, nil), "marked as attended")
}

func TestSMSNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("sends to the student's phone", func(t *testing.T) {
		api := &fakeMessages{}
		n := newSMSNotifier(api, "+15550001111", time.UTC, nil)
		err := n.AppointmentChanged(ctx, tutoring.User{ID: 1, Name: "Ana", Phone: "+51900000001"}, confirmed())
		require.NoError(t, err)
		require.Len(t, api.sent, 1)
		assert.Equal(t, "+51900000001", *api.sent[0].To)
		assert.Equal(t, "+15550001111", *api.sent[0].From)
		assert.Contains(t, *api.sent[0].Body, "accepted")
	})

	t.Run("no phone falls back to the log", func(t *testing.T) {
		api := &fakeMessages{}
		n := newSMSNotifier(api, "+15550001111", time.UTC, nil)
		require.NoError(t, n.AppointmentChanged(ctx, tutoring.User{ID: 1, Name: "Ana"}, confirmed()))
		assert.Empty(t, api.sent)
	})

	t.Run("gateway error is returned", func(t *testing.T) {
		api := &fakeMessages{err: errors.New("boom")}
		n := newSMSNotifier(api, "+15550001111", time.UTC, nil)
		err := n.AppointmentChanged(ctx, tutoring.User{ID: 1, Phone: "+51900000001"}, confirmed())
		assert.ErrorContains(t, err, "boom")
	})
}

type fakeMailer struct {
	sent   []*sgmail.SGMailV3
	status int
	err    error
}

func (f *fakeMailer) Send(m *sgmail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, m)
	status := f.status
	if status == 0 {
		status = http.StatusAccepted
	}
	return &rest.Response{StatusCode: status}, nil
}

func TestEmailNotifier(t *testing.T) {
	ctx := context.Background()
	from := sgmail.NewEmail("Institute", "no-reply@example.com")
	student := tutoring.User{ID: 1, Name: "Ana", Email: "ana@example.com"}

	t.Run("mails the student", func(t *testing.T) {
		mailer := &fakeMailer{}
		n := newEmailNotifier(mailer, from, time.UTC, nil)
		require.NoError(t, n.AppointmentChanged(ctx, student, confirmed()))
		require.Len(t, mailer.sent, 1)

		m := mailer.sent[0]
		assert.Equal(t, "no-reply@example.com", m.From.Address)
		require.Len(t, m.Personalizations, 1)
		assert.Equal(t, "[Institute] Tutoring session accepted", m.Personalizations[0].Subject)
		assert.Equal(t, "ana@example.com", m.Personalizations[0].To[0].Address)
		assert.Contains(t, m.Content[0].Value, "Join: https://meet.example.com/x")
	})

	t.Run("no email falls back to the log", func(t *testing.T) {
		mailer := &fakeMailer{}
		n := newEmailNotifier(mailer, from, time.UTC, nil)
		require.NoError(t, n.AppointmentChanged(ctx, tutoring.User{ID: 1, Name: "Ana"}, confirmed()))
		assert.Empty(t, mailer.sent)
	})

	t.Run("error status is returned", func(t *testing.T) {
		mailer := &fakeMailer{status: http.StatusUnauthorized}
		n := newEmailNotifier(mailer, from, time.UTC, nil)
		assert.ErrorContains(t, n.AppointmentChanged(ctx, student, confirmed()), "status 401")
	})
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) AppointmentChanged(context.Context, tutoring.User, tutoring.Appointment) error {
	f.calls++
	return errors.New("channel down")
}

func TestMulti(t *testing.T) {
	first, second := &failingNotifier{}, &failingNotifier{}
	err := Multi{first, second}.AppointmentChanged(context.Background(), tutoring.User{ID: 1}, confirmed())
	assert.ErrorContains(t, err, "channel down")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &LogNotifier{}, New(config.Config{Location: time.UTC}, nil))

	sms := config.Config{TwilioAccountSID: "AC1", TwilioAuthToken: "t", TwilioFromNumber: "+1555"}
	assert.IsType(t, &SMSNotifier{}, New(sms, nil))

	both := sms
	both.SendgridAPIKey = "SG.key"
	both.MailFromAddress = "no-reply@example.com"
	n, ok := New(both, nil).(Multi)
	require.True(t, ok)
	assert.Len(t, n, 2)
}
