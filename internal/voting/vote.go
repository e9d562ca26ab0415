// Package voting keeps the one-vote-per-voter ledger for threads and comments
// and computes their scores from the live set of votes.
package voting

import (
	"fmt"
	"strings"
	"time"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

// TargetKind enumerates the entities that can receive votes.
type TargetKind int

const (
	TargetThread TargetKind = iota + 1
	TargetComment
)

func (k TargetKind) String() string {
	switch k {
	case TargetThread:
		return "thread"
	case TargetComment:
		return "comment"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

func (k TargetKind) Valid() bool {
	return k == TargetThread || k == TargetComment
}

func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thread":
		return TargetThread, nil
	case "comment":
		return TargetComment, nil
	default:
		return 0, apperr.Newf(apperr.InvalidArgument, "unknown vote target %q", s)
	}
}

// TargetRef points at one votable entity.
type TargetRef struct {
	Kind TargetKind
	ID   int
}

func ThreadTarget(id int) TargetRef  { return TargetRef{Kind: TargetThread, ID: id} }
func CommentTarget(id int) TargetRef { return TargetRef{Kind: TargetComment, ID: id} }

func (t TargetRef) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

func (t TargetRef) validate() error {
	if !t.Kind.Valid() || t.ID <= 0 {
		return apperr.Newf(apperr.InvalidArgument, "invalid vote target %s", t)
	}
	return nil
}

// Value is the weight of a single vote, +1 or -1.
type Value int

const (
	Up   Value = 1
	Down Value = -1
)

func ParseValue(v int) (Value, error) {
	switch Value(v) {
	case Up, Down:
		return Value(v), nil
	default:
		return 0, apperr.Newf(apperr.InvalidArgument, "vote value must be 1 or -1, got %d", v)
	}
}

type Vote struct {
	ID        int
	VoterID   int
	Target    TargetRef
	Value     Value
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome is what a cast did to the voter's vote.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// decide applies the toggle policy: no vote creates one, the same value
// cancels it and the opposite value flips it in place.
func decide(existing *Vote, cast Value) Outcome {
	switch {
	case existing == nil:
		return Created
	case existing.Value == cast:
		return Removed
	default:
		return Updated
	}
}

// Tally is the raw aggregate over a target's votes.
type Tally struct {
	Positive int
	Negative int
	Sum      int
}

// Score is the read model for a target. Total is always the live sum of vote
// values; UserVote is nil unless a requester was given and holds a vote.
type Score struct {
	Target   TargetRef
	Positive int
	Negative int
	Total    int
	UserVote *Value
}
