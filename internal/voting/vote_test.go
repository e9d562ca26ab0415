package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

func TestDecide(t *testing.T) {
	up := &Vote{ID: 1, Value: Up}
	down := &Vote{ID: 2, Value: Down}

	tests := []struct {
		name     string
		existing *Vote
		cast     Value
		want     Outcome
	}{
		{"no vote, upvote", nil, Up, Created},
		{"no vote, downvote", nil, Down, Created},
		{"same value toggles off", up, Up, Removed},
		{"same downvote toggles off", down, Down, Removed},
		{"opposite value flips", up, Down, Updated},
		{"opposite downvote flips", down, Up, Updated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.existing, tt.cast))
		})
	}
}

func TestParseValue(t *testing.T) {
	for _, v := range []int{1, -1} {
		got, err := ParseValue(v)
		require.NoError(t, err)
		assert.Equal(t, Value(v), got)
	}
	for _, v := range []int{0, 2, -2, 100} {
		_, err := ParseValue(v)
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err), "value %d", v)
	}
}

func TestParseTargetKind(t *testing.T) {
	k, err := ParseTargetKind("Thread")
	require.NoError(t, err)
	assert.Equal(t, TargetThread, k)

	k, err = ParseTargetKind("comment")
	require.NoError(t, err)
	assert.Equal(t, TargetComment, k)

	_, err = ParseTargetKind("App\\Models\\Thread")
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestOutcomeMarshalText(t *testing.T) {
	b, err := Removed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "removed", string(b))
}
