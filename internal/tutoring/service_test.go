package tutoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/testutil"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

const (
	studentID      = 1
	teacherID      = 2
	otherTeacherID = 3
	otherStudentID = 4
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func tomorrowAt(hour int) time.Time {
	return time.Date(2026, 10, 17, hour, 0, 0, 0, time.UTC)
}

func setup(t *testing.T) (*tutoring.Service, *testutil.TutoringStore, *testutil.RecordingNotifier) {
	t.Helper()
	store := testutil.NewTutoringStore(
		tutoring.User{ID: studentID, Name: "Ana", Role: tutoring.RoleStudent, Phone: "+51900000001"},
		tutoring.User{ID: teacherID, Name: "Luis", Role: tutoring.RoleTeacher},
		tutoring.User{ID: otherTeacherID, Name: "Beatriz", Role: tutoring.RoleTeacher},
		tutoring.User{ID: otherStudentID, Name: "Carlos", Role: tutoring.RoleStudent},
	)
	notifier := &testutil.RecordingNotifier{}
	svc := tutoring.NewService(store, tutoring.Options{
		Location:      time.UTC,
		SessionLength: time.Hour,
		Now:           func() time.Time { return now },
		Notifier:      notifier,
	})
	return svc, store, notifier
}

func strPtr(s string) *string { return &s }

func TestService_HappyPath(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := setup(t)

	a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusPending, a.Status)
	assert.Equal(t, tomorrowAt(11), a.EndTime)

	a, err = svc.Accept(ctx, teacherID, a.ID, strPtr("https://x"))
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusConfirmed, a.Status)
	require.NotNil(t, a.MeetURL)
	assert.Equal(t, "https://x", *a.MeetURL)

	a, err = svc.MarkAttended(ctx, teacherID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusCompleted, a.Status)
	assert.True(t, a.Attended)

	_, err = svc.MarkAttended(ctx, teacherID, a.ID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	assert.Len(t, notifier.Notices, 2)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		student int
		teacher int
		start   time.Time
		want    apperr.Kind
	}{
		{"teacher lacks tutor role", studentID, otherStudentID, tomorrowAt(10), apperr.InvalidArgument},
		{"unknown teacher", studentID, 999, tomorrowAt(10), apperr.InvalidArgument},
		{"same day is not after today", studentID, teacherID, now.Add(3 * time.Hour), apperr.InvalidArgument},
		{"past date", studentID, teacherID, now.AddDate(0, 0, -2), apperr.InvalidArgument},
		{"self booking", teacherID, teacherID, tomorrowAt(10), apperr.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := setup(t)
			_, err := svc.Create(ctx, tt.student, tt.teacher, tt.start)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Zero(t, store.Count(), "no appointment may be created")
		})
	}
}

func TestService_CreateNotATutorMessage(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Create(context.Background(), studentID, otherStudentID, tomorrowAt(10))
	assert.EqualError(t, err, "not a tutor")
}

func TestService_DuplicatePending(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)

	first, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)

	_, err = svc.Create(ctx, studentID, teacherID, tomorrowAt(15))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, 1, store.Count())

	// another teacher is fine
	_, err = svc.Create(ctx, studentID, otherTeacherID, tomorrowAt(15))
	require.NoError(t, err)

	// once the first is resolved, a new request to the same teacher is allowed
	_, err = svc.Reject(ctx, teacherID, first.ID, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, studentID, teacherID, tomorrowAt(16))
	require.NoError(t, err)
}

func TestService_AcceptByOtherTeacher(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := setup(t)

	a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, otherTeacherID, a.ID, nil)
	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))

	stored, ok := store.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, tutoring.StatusPending, stored.Status)
	assert.Empty(t, notifier.Notices)
}

func TestService_TransitionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Accept(ctx, teacherID, 404, nil)
		assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	})

	t.Run("mark pending", func(t *testing.T) {
		svc, _, _ := setup(t)
		a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
		require.NoError(t, err)
		_, err = svc.MarkAttended(ctx, teacherID, a.ID)
		assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	})

	t.Run("reject confirmed", func(t *testing.T) {
		svc, _, _ := setup(t)
		a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
		require.NoError(t, err)
		_, err = svc.Accept(ctx, teacherID, a.ID, nil)
		require.NoError(t, err)
		_, err = svc.Reject(ctx, teacherID, a.ID, nil)
		assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	})

	t.Run("bad meet url", func(t *testing.T) {
		svc, _, _ := setup(t)
		a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
		require.NoError(t, err)
		_, err = svc.Accept(ctx, teacherID, a.ID, strPtr("not a url"))
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})

	t.Run("short rejection reason", func(t *testing.T) {
		svc, _, _ := setup(t)
		a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
		require.NoError(t, err)
		_, err = svc.Reject(ctx, teacherID, a.ID, strPtr("busy"))
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})
}

func TestService_RejectPersistsReason(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)

	a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)
	a, err = svc.Reject(ctx, teacherID, a.ID, strPtr("  I am travelling that week  "))
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusRejected, a.Status)

	stored, _ := store.Get(a.ID)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "I am travelling that week", *stored.RejectionReason)
}

func TestService_NotifierFailureDoesNotFailTransition(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := setup(t)
	notifier.Err = errors.New("sms gateway down")

	a, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)
	a, err = svc.Accept(ctx, teacherID, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusConfirmed, a.Status)
	assert.Nil(t, a.MeetURL)
}

func TestService_Listings(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setup(t)

	pending, err := svc.Create(ctx, studentID, teacherID, tomorrowAt(10))
	require.NoError(t, err)
	accepted, err := svc.Create(ctx, otherStudentID, teacherID, tomorrowAt(11))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, teacherID, accepted.ID, nil)
	require.NoError(t, err)
	store.Put(tutoring.Appointment{StudentID: studentID, TeacherID: teacherID, Status: tutoring.StatusCompleted, UpdatedAt: now.Add(-time.Hour)})
	store.Put(tutoring.Appointment{StudentID: otherStudentID, TeacherID: teacherID, Status: tutoring.StatusRejected, UpdatedAt: now})
	store.Put(tutoring.Appointment{StudentID: studentID, TeacherID: otherTeacherID, Status: tutoring.StatusPending})

	all, err := svc.ListForTeacher(ctx, teacherID, "all")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	onlyPending, err := svc.ListForTeacher(ctx, teacherID, "pending")
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)

	onlyAccepted, err := svc.ListForTeacher(ctx, teacherID, "accepted")
	require.NoError(t, err)
	require.Len(t, onlyAccepted, 1)
	assert.Equal(t, accepted.ID, onlyAccepted[0].ID)

	_, err = svc.ListForTeacher(ctx, teacherID, "cancelled-ish")
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	history, err := svc.History(ctx, teacherID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, tutoring.StatusRejected, history[0].Status)
	assert.Equal(t, tutoring.StatusCompleted, history[1].Status)

	mine, err := svc.ListForStudent(ctx, studentID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	teachers, err := svc.Teachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Beatriz", teachers[0].Name)
}

func TestService_Availability(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	_, err := svc.AddSlot(ctx, teacherID, "Friday", "09:00", "10:00")
	require.NoError(t, err)
	monday, err := svc.AddSlot(ctx, teacherID, "monday", "14:00", "15:30")
	require.NoError(t, err)

	_, err = svc.AddSlot(ctx, teacherID, "monday", "14:00", "15:30")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = svc.AddSlot(ctx, studentID, "monday", "08:00", "09:00")
	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))

	_, err = svc.AddSlot(ctx, teacherID, "monday", "10:00", "09:00")
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	_, err = svc.AddSlot(ctx, teacherID, "someday", "10:00", "11:00")
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))

	slots, err := svc.Availability(ctx, teacherID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "monday", slots[0].Day)
	assert.Equal(t, "friday", slots[1].Day)

	_, err = svc.Availability(ctx, 999)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = svc.RemoveSlot(ctx, otherTeacherID, monday.ID)
	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))
	require.NoError(t, svc.RemoveSlot(ctx, teacherID, monday.ID))
	err = svc.RemoveSlot(ctx, teacherID, monday.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestParseRequestedStart(t *testing.T) {
	lima := time.FixedZone("PET", -5*60*60)

	got, err := tutoring.ParseRequestedStart("2026-10-17", "10:00", lima)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC), got.UTC())

	_, err = tutoring.ParseRequestedStart("17/10/2026", "10:00", lima)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}
