package voting

import (
	"context"
	"log/slog"
	"time"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/config"
)

// Store persists votes. Implementations must make Atomically serialize calls
// for the same (voter, target) pair so the read-then-write in Cast cannot lose
// an update.
type Store interface {
	Atomically(ctx context.Context, voterID int, target TargetRef, fn func(tx Tx) error) error
	TargetExists(ctx context.Context, target TargetRef) (bool, error)
	Tally(ctx context.Context, target TargetRef) (Tally, error)
	Tallies(ctx context.Context, kind TargetKind, ids []int) (map[int]Tally, error)
	VoteOf(ctx context.Context, voterID int, target TargetRef) (*Vote, error)
	VotesOf(ctx context.Context, voterID int, kind TargetKind, ids []int) (map[int]Value, error)
}

// Tx is the transaction-scoped view handed to Atomically callbacks.
type Tx interface {
	TargetExists(ctx context.Context, target TargetRef) (bool, error)
	Find(ctx context.Context, voterID int, target TargetRef) (*Vote, error)
	Insert(ctx context.Context, vote *Vote) error
	UpdateValue(ctx context.Context, id int, value Value, at time.Time) error
	Delete(ctx context.Context, id int) error
}

type Ledger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewLedger(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: config.ResolveLogger(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CastResult struct {
	Outcome Outcome
	Vote    *Vote // nil when the cast removed the vote
	Score   Score
}

// Cast records voterID's vote on target using toggle semantics and returns
// the target's fresh score.
func (l *Ledger) Cast(ctx context.Context, voterID int, target TargetRef, value int) (CastResult, error) {
	if err := target.validate(); err != nil {
		return CastResult{}, err
	}
	v, err := ParseValue(value)
	if err != nil {
		return CastResult{}, err
	}
	if voterID <= 0 {
		return CastResult{}, apperr.New(apperr.InvalidArgument, "voter is required")
	}

	var res CastResult
	err = l.store.Atomically(ctx, voterID, target, func(tx Tx) error {
		ok, err := tx.TargetExists(ctx, target)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Newf(apperr.NotFound, "%s not found", target.Kind)
		}

		existing, err := tx.Find(ctx, voterID, target)
		if err != nil {
			return err
		}
		now := l.now()
		res.Outcome = decide(existing, v)
		switch res.Outcome {
		case Created:
			vote := &Vote{VoterID: voterID, Target: target, Value: v, CreatedAt: now, UpdatedAt: now}
			if err := tx.Insert(ctx, vote); err != nil {
				return err
			}
			res.Vote = vote
		case Removed:
			return tx.Delete(ctx, existing.ID)
		case Updated:
			if err := tx.UpdateValue(ctx, existing.ID, v, now); err != nil {
				return err
			}
			existing.Value = v
			existing.UpdatedAt = now
			res.Vote = existing
		}
		return nil
	})
	if err != nil {
		l.logger.Warn("vote cast failed",
			"event", "vote_cast_failed",
			"module", "voting",
			"voter_id", voterID,
			"target", target.String(),
			"error", err.Error(),
		)
		return CastResult{}, err
	}
	l.logger.Info("vote cast",
		"event", "vote_cast",
		"module", "voting",
		"voter_id", voterID,
		"target", target.String(),
		"value", int(v),
		"outcome", res.Outcome.String(),
	)

	res.Score, err = l.score(ctx, target, &voterID)
	if err != nil {
		return CastResult{}, err
	}
	return res, nil
}

// Score returns the live aggregate for target. requesterID may be nil.
func (l *Ledger) Score(ctx context.Context, target TargetRef, requesterID *int) (Score, error) {
	if err := target.validate(); err != nil {
		return Score{}, err
	}
	ok, err := l.store.TargetExists(ctx, target)
	if err != nil {
		return Score{}, err
	}
	if !ok {
		return Score{}, apperr.Newf(apperr.NotFound, "%s not found", target.Kind)
	}
	return l.score(ctx, target, requesterID)
}

func (l *Ledger) score(ctx context.Context, target TargetRef, requesterID *int) (Score, error) {
	t, err := l.store.Tally(ctx, target)
	if err != nil {
		return Score{}, err
	}
	s := Score{Target: target, Positive: t.Positive, Negative: t.Negative, Total: t.Sum}
	if requesterID != nil && *requesterID > 0 {
		vote, err := l.store.VoteOf(ctx, *requesterID, target)
		if err != nil {
			return Score{}, err
		}
		if vote != nil {
			val := vote.Value
			s.UserVote = &val
		}
	}
	return s, nil
}

// Scores is the batch form of Score for listings. Targets without votes get a
// zero score; existence is not checked.
func (l *Ledger) Scores(ctx context.Context, kind TargetKind, ids []int, requesterID *int) (map[int]Score, error) {
	out := make(map[int]Score, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if !kind.Valid() {
		return nil, apperr.Newf(apperr.InvalidArgument, "invalid vote target kind %s", kind)
	}
	tallies, err := l.store.Tallies(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	var mine map[int]Value
	if requesterID != nil && *requesterID > 0 {
		if mine, err = l.store.VotesOf(ctx, *requesterID, kind, ids); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		t := tallies[id]
		s := Score{Target: TargetRef{Kind: kind, ID: id}, Positive: t.Positive, Negative: t.Negative, Total: t.Sum}
		if v, ok := mine[id]; ok {
			val := v
			s.UserVote = &val
		}
		out[id] = s
	}
	return out, nil
}
