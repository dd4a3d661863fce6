package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidRatingScore(t *testing.T) {
	for score := 1; score <= 10; score++ {
		require.True(t, ValidRatingScore(score), "score %d", score)
	}
	for _, score := range []int{0, -1, 11, 100} {
		require.False(t, ValidRatingScore(score), "score %d", score)
	}
}

func TestValidReaction(t *testing.T) {
	require.True(t, ValidReaction(ReactionLike))
	require.True(t, ValidReaction(ReactionDislike))
	for _, v := range []int{0, 2, -2, 10} {
		require.False(t, ValidReaction(v), "value %d", v)
	}
}
