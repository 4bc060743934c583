package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username          string               `bson:"username" json:"username"`
	Email             string               `bson:"email" json:"email"`
	Password          string               `bson:"password" json:"-"`
	JoinedCommunities []primitive.ObjectID `bson:"joinedCommunities" json:"joinedCommunities"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
}

// UserSummary is the shape other documents embed when a user
// reference is populated in a response.
type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}
