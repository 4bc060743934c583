package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tetra/database"
	"tetra/models"
)

type CommunityHandler struct {
	Store *database.Store
}

type CreateCommunityRequest struct {
	Name        string                 `json:"name" binding:"required,min=3,max=21"`
	Description string                 `json:"description" binding:"required,min=1,max=500"`
	Rules       []models.CommunityRule `json:"rules"`
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := h.Store.Communities.CountDocuments(ctx, bson.M{"name": req.Name})
	if err != nil {
		log.Printf("Create community name check error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating community"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Community with this name already exists"})
		return
	}

	rules := req.Rules
	if rules == nil {
		rules = []models.CommunityRule{}
	}

	now := time.Now()
	community := models.Community{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Description: req.Description,
		Creator:     userID,
		Moderators:  []primitive.ObjectID{userID},
		Members:     []primitive.ObjectID{userID},
		Rules:       rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := h.Store.Communities.InsertOne(ctx, community); err != nil {
		log.Printf("Create community insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating community"})
		return
	}

	// The creator joins their own community.
	if _, err := h.Store.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"joinedCommunities": community.ID}}); err != nil {
		log.Printf("Create community membership error: %v", err)
	}

	resp, err := h.loadCommunity(ctx, community.ID)
	if err != nil {
		log.Printf("Create community populate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating community"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CommunityHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "creator"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "creatorDoc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$creatorDoc"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := h.Store.Communities.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("List communities aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching communities"})
		return
	}
	defer cursor.Close(ctx)

	var results []struct {
		models.Community `bson:",inline"`
		CreatorDoc       *models.User `bson:"creatorDoc"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		log.Printf("List communities decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching communities"})
		return
	}

	communities := make([]gin.H, len(results))
	for i, r := range results {
		communities[i] = communityItem(&r.Community, r.CreatorDoc)
	}

	c.JSON(http.StatusOK, communities)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	communityID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.loadCommunity(ctx, communityID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}
	if err != nil {
		log.Printf("Get community error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching community"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CommunityHandler) Join(c *gin.Context) {
	h.setMembership(c, true)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	h.setMembership(c, false)
}

func (h *CommunityHandler) setMembership(c *gin.Context, join bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	communityID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memberOp := bson.M{"$addToSet": bson.M{"members": userID}}
	userOp := bson.M{"$addToSet": bson.M{"joinedCommunities": communityID}}
	if !join {
		memberOp = bson.M{"$pull": bson.M{"members": userID}}
		userOp = bson.M{"$pull": bson.M{"joinedCommunities": communityID}}
	}

	res, err := h.Store.Communities.UpdateOne(ctx, bson.M{"_id": communityID}, memberOp)
	if err != nil {
		log.Printf("Membership update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating membership"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}

	if _, err := h.Store.Users.UpdateOne(ctx, bson.M{"_id": userID}, userOp); err != nil {
		log.Printf("Membership user update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating membership"})
		return
	}

	var community models.Community
	if err := h.Store.Communities.FindOne(ctx, bson.M{"_id": communityID}).Decode(&community); err != nil {
		log.Printf("Membership reload error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating membership"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      community.ID.Hex(),
		"name":    community.Name,
		"members": len(community.Members),
		"joined":  join,
	})
}

func (h *CommunityHandler) loadCommunity(ctx context.Context, communityID primitive.ObjectID) (gin.H, error) {
	var community models.Community
	if err := h.Store.Communities.FindOne(ctx, bson.M{"_id": communityID}).Decode(&community); err != nil {
		return nil, err
	}

	var creator *models.User
	var found models.User
	err := h.Store.Users.FindOne(ctx, bson.M{"_id": community.Creator}).Decode(&found)
	if err == nil {
		creator = &found
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	return communityItem(&community, creator), nil
}

func communityItem(community *models.Community, creator *models.User) gin.H {
	item := gin.H{
		"id":          community.ID.Hex(),
		"name":        community.Name,
		"description": community.Description,
		"rules":       community.Rules,
		"banner":      community.Banner,
		"icon":        community.Icon,
		"members":     len(community.Members),
		"createdAt":   community.CreatedAt,
	}

	if creator != nil {
		item["creator"] = gin.H{"id": creator.ID.Hex(), "username": creator.Username}
	} else {
		item["creator"] = gin.H{"id": community.Creator.Hex()}
	}

	return item
}
