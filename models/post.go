package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidDirection = errors.New("vote must be 1 or -1")
	ErrEmptyComment     = errors.New("comment content cannot be empty")
)

// Voter records a single user's standing vote on a post. A post holds
// at most one Voter entry per user.
type Voter struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	Vote int                `bson:"vote" json:"vote"`
}

type Comment struct {
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Community primitive.ObjectID `bson:"community" json:"community"`
	Votes     int                `bson:"votes" json:"votes"`
	Voters    []Voter            `bson:"voters" json:"voters"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ApplyVote applies one vote action from voter and returns the new
// running total. The same direction twice retracts the vote, the
// opposite direction flips it, otherwise the vote is recorded fresh.
// Votes stays equal to the sum of the voter entries throughout.
func (p *Post) ApplyVote(voter primitive.ObjectID, direction int) (int, error) {
	if direction != 1 && direction != -1 {
		return p.Votes, ErrInvalidDirection
	}

	for i, v := range p.Voters {
		if v.User != voter {
			continue
		}

		old := v.Vote
		p.Votes -= old
		p.Voters = append(p.Voters[:i], p.Voters[i+1:]...)

		if old != direction {
			p.Voters = append(p.Voters, Voter{User: voter, Vote: direction})
			p.Votes += direction
		}
		return p.Votes, nil
	}

	p.Voters = append(p.Voters, Voter{User: voter, Vote: direction})
	p.Votes += direction
	return p.Votes, nil
}

// AddComment appends a comment to the post. Comments are append-only:
// nothing ever reorders or removes earlier entries.
func (p *Post) AddComment(author primitive.ObjectID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	p.Comments = append(p.Comments, Comment{
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return &p.Comments[len(p.Comments)-1], nil
}
