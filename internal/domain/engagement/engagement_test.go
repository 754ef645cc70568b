package engagement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVoteType(t *testing.T) {
	v, err := ParseVoteType("upvote")
	require.NoError(t, err)
	assert.Equal(t, Upvote, v)

	v, err = ParseVoteType("downvote")
	require.NoError(t, err)
	assert.Equal(t, Downvote, v)

	_, err = ParseVoteType("sideways")
	assert.ErrorIs(t, err, ErrInvalidVoteType)
}

func TestTallyScore(t *testing.T) {
	var tally Tally
	tally.Add(Upvote, 5)
	tally.Add(Downvote, 2)
	tally.Add(Upvote, 1)

	assert.Equal(t, int64(6), tally.Upvotes)
	assert.Equal(t, int64(2), tally.Downvotes)
	assert.Equal(t, tally.Upvotes-tally.Downvotes, tally.Score())
}

func TestTargetValidate(t *testing.T) {
	assert.NoError(t, RecipeTarget(1).Validate())
	assert.NoError(t, CommentTarget(2).Validate())
	assert.ErrorIs(t, RecipeTarget(0).Validate(), ErrInvalidTargetID)
	assert.ErrorIs(t, Target{Kind: "state", ID: 1}.Validate(), ErrInvalidTargetKind)
}

func TestNewComment(t *testing.T) {
	t.Run("TopLevel", func(t *testing.T) {
		c, err := NewComment(1, 2, "  Lovely\x1b soup ", nil)

		require.NoError(t, err)
		assert.Equal(t, "Lovely soup", c.Content)
		assert.Nil(t, c.ParentID)
		assert.False(t, c.IsEdited)
		assert.False(t, c.IsReply())
	})

	t.Run("Reply", func(t *testing.T) {
		parent := &Comment{ID: 9, RecipeID: 1}

		c, err := NewComment(1, 2, "Agreed", parent)

		require.NoError(t, err)
		require.NotNil(t, c.ParentID)
		assert.Equal(t, uint(9), *c.ParentID)
		assert.True(t, c.IsReply())
	})

	t.Run("ParentOnOtherRecipe", func(t *testing.T) {
		parent := &Comment{ID: 9, RecipeID: 7}

		_, err := NewComment(1, 2, "Agreed", parent)

		assert.ErrorIs(t, err, ErrParentOnOtherRecipe)
	})

	t.Run("InvalidContent", func(t *testing.T) {
		_, err := NewComment(1, 2, " \n ", nil)
		assert.ErrorIs(t, err, ErrContentRequired)

		_, err = NewComment(1, 2, strings.Repeat("x", MaxCommentLength+1), nil)
		assert.ErrorIs(t, err, ErrContentTooLong)
	})
}

func TestCommentEdit(t *testing.T) {
	c, err := NewComment(1, 2, "Same", nil)
	require.NoError(t, err)

	require.NoError(t, c.Edit("Same"))

	assert.True(t, c.IsEdited)
	assert.Equal(t, "Same", c.Content)
	assert.ErrorIs(t, c.Edit(""), ErrContentRequired)
	assert.True(t, c.IsOwnedBy(2))
	assert.False(t, c.IsOwnedBy(3))
}

func TestNewSubject(t *testing.T) {
	for _, ft := range FavoriteTypes {
		s, err := NewSubject(ft, 5)
		require.NoError(t, err)
		assert.Equal(t, ft, s.Type())
		assert.Equal(t, uint(5), s.TargetID())
	}

	_, err := NewSubject(FavoriteCountry, 0)
	assert.ErrorIs(t, err, ErrInvalidTargetID)

	_, err = NewSubject("planet", 1)
	assert.ErrorIs(t, err, ErrInvalidFavoriteType)

	_, err = ParseFavoriteType("planet")
	assert.ErrorIs(t, err, ErrInvalidFavoriteType)

	s, err := NewSubject(FavoriteState, 3)
	require.NoError(t, err)
	assert.IsType(t, StateSubject{}, s)
}
