package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), Internal},
		{"not found", New(NotFound, "thread not found"), NotFound},
		{"wrapped conflict", fmt.Errorf("create: %w", New(Conflict, "dup")), Conflict},
		{"wrap helper", Wrap(errors.New("x"), InvalidState, "bad state"), InvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("accept: %w", New(PermissionDenied, "not your appointment"))

	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMessageOfHidesInternalCause(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: connection refused")))
	assert.Equal(t, "vote not allowed", MessageOf(New(InvalidArgument, "vote not allowed")))
	assert.Nil(t, Wrap(nil, NotFound, "ignored"))
}
