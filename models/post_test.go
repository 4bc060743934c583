package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tallyOf recomputes the vote total from the ledger entries.
func tallyOf(p *Post) int {
	sum := 0
	for _, v := range p.Voters {
		sum += v.Vote
	}
	return sum
}

func TestApplyVote(t *testing.T) {
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	t.Run("fresh vote", func(t *testing.T) {
		p := &Post{}

		votes, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)

		assert.Equal(t, 1, votes)
		assert.Len(t, p.Voters, 1)
		assert.Equal(t, Voter{User: userA, Vote: 1}, p.Voters[0])
	})

	t.Run("same direction retracts", func(t *testing.T) {
		p := &Post{}

		_, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)

		votes, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)

		assert.Equal(t, 0, votes)
		assert.Empty(t, p.Voters)
	})

	t.Run("retraction is a toggle, not a no-op", func(t *testing.T) {
		p := &Post{}

		for i := 0; i < 4; i++ {
			_, err := p.ApplyVote(userA, -1)
			require.NoError(t, err)
		}

		// Even number of identical votes cancels out entirely.
		assert.Equal(t, 0, p.Votes)
		assert.Empty(t, p.Voters)

		votes, err := p.ApplyVote(userA, -1)
		require.NoError(t, err)
		assert.Equal(t, -1, votes)
	})

	t.Run("opposite direction flips", func(t *testing.T) {
		p := &Post{}

		_, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)

		votes, err := p.ApplyVote(userA, -1)
		require.NoError(t, err)

		// Net change relative to the upvoted state is exactly -2.
		assert.Equal(t, -1, votes)
		assert.Len(t, p.Voters, 1)
		assert.Equal(t, Voter{User: userA, Vote: -1}, p.Voters[0])
	})

	t.Run("invalid direction rejected without mutation", func(t *testing.T) {
		p := &Post{}

		_, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)

		for _, dir := range []int{0, 2, -2, 100} {
			votes, err := p.ApplyVote(userB, dir)
			assert.ErrorIs(t, err, ErrInvalidDirection)
			assert.Equal(t, 1, votes)
		}

		assert.Equal(t, 1, p.Votes)
		assert.Len(t, p.Voters, 1)
	})

	t.Run("two users then a retraction", func(t *testing.T) {
		p := &Post{}

		votes, err := p.ApplyVote(userA, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, votes)

		votes, err = p.ApplyVote(userB, -1)
		require.NoError(t, err)
		assert.Equal(t, 0, votes)

		// A voting up again retracts A's vote, leaving only B's.
		votes, err = p.ApplyVote(userA, 1)
		require.NoError(t, err)
		assert.Equal(t, -1, votes)
		assert.Equal(t, []Voter{{User: userB, Vote: -1}}, p.Voters)
	})

	t.Run("tally matches ledger across arbitrary sequences", func(t *testing.T) {
		p := &Post{}
		users := []primitive.ObjectID{userA, userB, primitive.NewObjectID()}

		seq := []struct {
			user int
			dir  int
		}{
			{0, 1}, {1, 1}, {2, -1}, {0, 1}, {1, -1},
			{2, -1}, {0, -1}, {1, -1}, {0, -1}, {2, 1},
		}

		for _, step := range seq {
			_, err := p.ApplyVote(users[step.user], step.dir)
			require.NoError(t, err)

			assert.Equal(t, tallyOf(p), p.Votes)

			seen := map[primitive.ObjectID]bool{}
			for _, v := range p.Voters {
				assert.False(t, seen[v.User], "duplicate voter entry")
				seen[v.User] = true
			}
		}
	})
}

func TestAddComment(t *testing.T) {
	author := primitive.NewObjectID()

	t.Run("append preserves order", func(t *testing.T) {
		p := &Post{}

		first, err := p.AddComment(author, "first")
		require.NoError(t, err)
		assert.Equal(t, "first", first.Content)

		second, err := p.AddComment(author, "second")
		require.NoError(t, err)
		assert.Equal(t, "second", second.Content)

		require.Len(t, p.Comments, 2)
		assert.Equal(t, "first", p.Comments[0].Content)
		assert.Equal(t, "second", p.Comments[1].Content)
		assert.False(t, p.Comments[0].CreatedAt.IsZero())
	})

	t.Run("content is trimmed", func(t *testing.T) {
		p := &Post{}

		c, err := p.AddComment(author, "  hello  ")
		require.NoError(t, err)
		assert.Equal(t, "hello", c.Content)
	})

	t.Run("blank content rejected", func(t *testing.T) {
		p := &Post{}

		for _, content := range []string{"", "   ", "\t\n"} {
			_, err := p.AddComment(author, content)
			assert.ErrorIs(t, err, ErrEmptyComment)
		}
		assert.Empty(t, p.Comments)
	})
}
