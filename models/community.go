package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommunityRule struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

type Community struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Creator     primitive.ObjectID   `bson:"creator" json:"creator"`
	Moderators  []primitive.ObjectID `bson:"moderators" json:"moderators"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Rules       []CommunityRule      `bson:"rules" json:"rules"`
	Banner      string               `bson:"banner" json:"banner"`
	Icon        string               `bson:"icon" json:"icon"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
