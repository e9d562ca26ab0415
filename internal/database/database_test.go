package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

// openTestDB starts a throwaway postgres and returns a migrated connection.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("institute_test"),
		tcpostgres.WithUsername("institute"),
		tcpostgres.WithPassword("institute"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(dsn, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@institute.test", Password: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestVoteStore_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	author := seedUser(t, db, "author", models.RoleStudent)
	forum := models.Forum{Name: "General", Description: "General discussion"}
	require.NoError(t, db.Create(&forum).Error)
	thread := models.Thread{ForumID: forum.ID, UserID: author.ID, Title: "Hello", Body: "First thread body"}
	require.NoError(t, db.Create(&thread).Error)

	ledger := voting.NewLedger(database.NewVoteStore(db), nil)
	target := voting.ThreadTarget(thread.ID)

	voters := make([]models.User, 3)
	for i := range voters {
		voters[i] = seedUser(t, db, "voter"+string(rune('a'+i)), models.RoleStudent)
	}

	_, err := ledger.Cast(ctx, voters[0].ID, target, 1)
	require.NoError(t, err)
	_, err = ledger.Cast(ctx, voters[1].ID, target, 1)
	require.NoError(t, err)
	res, err := ledger.Cast(ctx, voters[2].ID, target, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score.Total)
	assert.Equal(t, 2, res.Score.Positive)
	assert.Equal(t, 1, res.Score.Negative)

	res, err = ledger.Cast(ctx, voters[2].ID, target, 1)
	require.NoError(t, err)
	assert.Equal(t, voting.Updated, res.Outcome)
	assert.Equal(t, 3, res.Score.Total)

	res, err = ledger.Cast(ctx, voters[0].ID, target, 1)
	require.NoError(t, err)
	assert.Equal(t, voting.Removed, res.Outcome)
	assert.Equal(t, 2, res.Score.Total)

	scores, err := ledger.Scores(ctx, voting.TargetThread, []int{thread.ID}, &voters[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, scores[thread.ID].Total)
	require.NotNil(t, scores[thread.ID].UserVote)

	_, err = ledger.Cast(ctx, voters[0].ID, voting.CommentTarget(thread.ID), 1)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// Parallel casts from one voter must never leave two rows behind.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Cast(ctx, voters[1].ID, target, -1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("user_id = ? AND votable_type = ? AND votable_id = ?", voters[1].ID, "thread", thread.ID).
		Count(&n).Error)
	assert.LessOrEqual(t, n, int64(1))
}

func TestTutoringStore_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	student := seedUser(t, db, "student", models.RoleStudent)
	teacher := seedUser(t, db, "teacher", models.RoleTeacher)

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	svc := tutoring.NewService(database.NewTutoringStore(db), tutoring.Options{
		Now: func() time.Time { return now },
	})
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	a, err := svc.Create(ctx, student.ID, teacher.ID, start)
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	_, err = svc.Create(ctx, student.ID, teacher.ID, start.Add(2*time.Hour))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	meet := "https://meet.example.com/abc"
	a, err = svc.Accept(ctx, teacher.ID, a.ID, &meet)
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusConfirmed, a.Status)

	a, err = svc.MarkAttended(ctx, teacher.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, tutoring.StatusCompleted, a.Status)

	var row models.Appointment
	require.NoError(t, db.First(&row, a.ID).Error)
	assert.Equal(t, "completed", row.Status)
	assert.True(t, row.Attended)
	require.NotNil(t, row.MeetURL)
	assert.Equal(t, meet, *row.MeetURL)

	history, err := svc.History(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Student)
	assert.Equal(t, "student", history[0].Student.Name)

	_, err = svc.AddSlot(ctx, teacher.ID, "tuesday", "09:00", "10:00")
	require.NoError(t, err)
	_, err = svc.AddSlot(ctx, teacher.ID, "tuesday", "09:00", "10:00")
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}
