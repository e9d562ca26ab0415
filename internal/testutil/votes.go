// Package testutil holds in-memory stores and fixtures shared by package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/emilythestrangee/institute-hub/backend/internal/voting"
)

type voteKey struct {
	voterID int
	target  voting.TargetRef
}

// VoteStore is an in-memory voting.Store. Atomically serializes every
// transaction and only publishes its writes when the callback succeeds.
type VoteStore struct {
	mu      sync.Mutex
	targets map[voting.TargetRef]bool
	votes   map[voteKey]voting.Vote
	nextID  int
}

var _ voting.Store = (*VoteStore)(nil)

func NewVoteStore(targets ...voting.TargetRef) *VoteStore {
	s := &VoteStore{
		targets: make(map[voting.TargetRef]bool),
		votes:   make(map[voteKey]voting.Vote),
	}
	for _, t := range targets {
		s.targets[t] = true
	}
	return s
}

func (s *VoteStore) AddTarget(t voting.TargetRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[t] = true
}

// Votes returns every stored vote for target.
func (s *VoteStore) Votes(target voting.TargetRef) []voting.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []voting.Vote
	for k, v := range s.votes {
		if k.target == target {
			out = append(out, v)
		}
	}
	return out
}

func (s *VoteStore) Atomically(ctx context.Context, voterID int, target voting.TargetRef, fn func(tx voting.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[voteKey]voting.Vote, len(s.votes))
	for k, v := range s.votes {
		staged[k] = v
	}
	tx := &voteTx{store: s, votes: staged, nextID: s.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	s.votes = staged
	s.nextID = tx.nextID
	return nil
}

func (s *VoteStore) TargetExists(_ context.Context, target voting.TargetRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[target], nil
}

func (s *VoteStore) Tally(_ context.Context, target voting.TargetRef) (voting.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally(target), nil
}

func (s *VoteStore) tally(target voting.TargetRef) voting.Tally {
	var t voting.Tally
	for k, v := range s.votes {
		if k.target != target {
			continue
		}
		t.Sum += int(v.Value)
		if v.Value == voting.Up {
			t.Positive++
		} else {
			t.Negative++
		}
	}
	return t
}

func (s *VoteStore) Tallies(_ context.Context, kind voting.TargetKind, ids []int) (map[int]voting.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]voting.Tally, len(ids))
	for _, id := range ids {
		out[id] = s.tally(voting.TargetRef{Kind: kind, ID: id})
	}
	return out, nil
}

func (s *VoteStore) VoteOf(_ context.Context, voterID int, target voting.TargetRef) (*voting.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.votes[voteKey{voterID, target}]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *VoteStore) VotesOf(_ context.Context, voterID int, kind voting.TargetKind, ids []int) (map[int]voting.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]voting.Value)
	for _, id := range ids {
		if v, ok := s.votes[voteKey{voterID, voting.TargetRef{Kind: kind, ID: id}}]; ok {
			out[id] = v.Value
		}
	}
	return out, nil
}

type voteTx struct {
	store  *VoteStore
	votes  map[voteKey]voting.Vote
	nextID int
}

func (tx *voteTx) TargetExists(_ context.Context, target voting.TargetRef) (bool, error) {
	return tx.store.targets[target], nil
}

func (tx *voteTx) Find(_ context.Context, voterID int, target voting.TargetRef) (*voting.Vote, error) {
	if v, ok := tx.votes[voteKey{voterID, target}]; ok {
		return &v, nil
	}
	return nil, nil
}

func (tx *voteTx) Insert(_ context.Context, vote *voting.Vote) error {
	tx.nextID++
	vote.ID = tx.nextID
	tx.votes[voteKey{vote.VoterID, vote.Target}] = *vote
	return nil
}

func (tx *voteTx) UpdateValue(_ context.Context, id int, value voting.Value, at time.Time) error {
	for k, v := range tx.votes {
		if v.ID == id {
			v.Value = value
			v.UpdatedAt = at
			tx.votes[k] = v
			return nil
		}
	}
	return nil
}

func (tx *voteTx) Delete(_ context.Context, id int) error {
	for k, v := range tx.votes {
		if v.ID == id {
			delete(tx.votes, k)
			return nil
		}
	}
	return nil
}
