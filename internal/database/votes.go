package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

// VoteStore is the postgres voting.Store. votable_type holds the target
// kind's name ("thread" or "comment").
type VoteStore struct {
	db *gorm.DB
}

var _ voting.Store = (*VoteStore)(nil)

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// Atomically serializes casts for one (voter, target) pair with a transaction
// scoped advisory lock, which also covers the case where no vote row exists yet.
func (s *VoteStore) Atomically(ctx context.Context, voterID int, target voting.TargetRef, fn func(tx voting.Tx) error) error {
	key := fmt.Sprintf("vote:%d:%s", voterID, target)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := advisoryLock(tx, key); err != nil {
			return err
		}
		return fn(&voteTx{db: tx})
	})
}

func (s *VoteStore) TargetExists(ctx context.Context, target voting.TargetRef) (bool, error) {
	return targetExists(s.db.WithContext(ctx), target)
}

type tallyRow struct {
	VotableID int
	Positive  int
	Negative  int
	Sum       int
}

const tallySelect = "COUNT(*) FILTER (WHERE value = 1) AS positive, " +
	"COUNT(*) FILTER (WHERE value = -1) AS negative, " +
	"COALESCE(SUM(value), 0) AS sum"

func (s *VoteStore) Tally(ctx context.Context, target voting.TargetRef) (voting.Tally, error) {
	var row tallyRow
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select(tallySelect).
		Where("votable_type = ? AND votable_id = ?", target.Kind.String(), target.ID).
		Scan(&row).Error
	if err != nil {
		return voting.Tally{}, wrap(err, "votes: tally", "")
	}
	return voting.Tally{Positive: row.Positive, Negative: row.Negative, Sum: row.Sum}, nil
}

func (s *VoteStore) Tallies(ctx context.Context, kind voting.TargetKind, ids []int) (map[int]voting.Tally, error) {
	out := make(map[int]voting.Tally, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []tallyRow
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("votable_id, "+tallySelect).
		Where("votable_type = ? AND votable_id IN ?", kind.String(), ids).
		Group("votable_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap(err, "votes: tallies", "")
	}
	for _, r := range rows {
		out[r.VotableID] = voting.Tally{Positive: r.Positive, Negative: r.Negative, Sum: r.Sum}
	}
	return out, nil
}

func (s *VoteStore) VoteOf(ctx context.Context, voterID int, target voting.TargetRef) (*voting.Vote, error) {
	return findVote(s.db.WithContext(ctx), voterID, target)
}

func (s *VoteStore) VotesOf(ctx context.Context, voterID int, kind voting.TargetKind, ids []int) (map[int]voting.Value, error) {
	out := make(map[int]voting.Value)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND votable_type = ? AND votable_id IN ?", voterID, kind.String(), ids).
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "votes: votes of voter", "")
	}
	for _, r := range rows {
		out[r.VotableID] = voting.Value(r.Value)
	}
	return out, nil
}

// DeleteVotesFor removes every vote on the given targets. Callers run it in
// the same transaction that deletes the targets.
func DeleteVotesFor(tx *gorm.DB, kind voting.TargetKind, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.Where("votable_type = ? AND votable_id IN ?", kind.String(), ids).Delete(&models.Vote{}).Error
	return wrap(err, "votes: delete for targets", "")
}

type voteTx struct {
	db *gorm.DB
}

func (tx *voteTx) TargetExists(ctx context.Context, target voting.TargetRef) (bool, error) {
	return targetExists(tx.db.WithContext(ctx), target)
}

func (tx *voteTx) Find(ctx context.Context, voterID int, target voting.TargetRef) (*voting.Vote, error) {
	return findVote(tx.db.WithContext(ctx), voterID, target)
}

func (tx *voteTx) Insert(ctx context.Context, vote *voting.Vote) error {
	row := models.Vote{
		UserID:      vote.VoterID,
		VotableType: vote.Target.Kind.String(),
		VotableID:   vote.Target.ID,
		Value:       int(vote.Value),
		CreatedAt:   vote.CreatedAt,
		UpdatedAt:   vote.UpdatedAt,
	}
	if err := tx.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrap(err, "votes: insert", "vote already exists")
	}
	vote.ID = row.ID
	return nil
}

func (tx *voteTx) UpdateValue(ctx context.Context, id int, value voting.Value, at time.Time) error {
	res := tx.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", id).
		Updates(map[string]any{"value": int(value), "updated_at": at})
	if res.Error != nil {
		return wrap(res.Error, "votes: update", "")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "vote not found")
	}
	return nil
}

func (tx *voteTx) Delete(ctx context.Context, id int) error {
	err := tx.db.WithContext(ctx).Delete(&models.Vote{}, id).Error
	return wrap(err, "votes: delete", "")
}

func targetExists(db *gorm.DB, target voting.TargetRef) (bool, error) {
	var model any
	switch target.Kind {
	case voting.TargetThread:
		model = &models.Thread{}
	case voting.TargetComment:
		model = &models.Comment{}
	default:
		return false, nil
	}
	var n int64
	if err := db.Model(model).Where("id = ?", target.ID).Count(&n).Error; err != nil {
		return false, wrap(err, "votes: target exists", "")
	}
	return n > 0, nil
}

func findVote(db *gorm.DB, voterID int, target voting.TargetRef) (*voting.Vote, error) {
	var row models.Vote
	err := db.Where("user_id = ? AND votable_type = ? AND votable_id = ?", voterID, target.Kind.String(), target.ID).
		Take(&row).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "votes: find", "")
	}
	return &voting.Vote{
		ID:        row.ID,
		VoterID:   row.UserID,
		Target:    target,
		Value:     voting.Value(row.Value),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func advisoryLock(tx *gorm.DB, key string) error {
	err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
	return wrap(err, "advisory lock", "")
}
