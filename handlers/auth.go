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
	"golang.org/x/crypto/bcrypt"

	"tetra/auth"
	"tetra/database"
	"tetra/models"
)

type AuthHandler struct {
	Store  *database.Store
	Issuer *auth.Issuer
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Reject duplicate email or username up front
	count, err := h.Store.Users.CountDocuments(ctx, bson.M{
		"$or": bson.A{
			bson.M{"email": req.Email},
			bson.M{"username": req.Username},
		},
	})
	if err != nil {
		log.Printf("Signup duplicate check error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email or username already exists"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Signup hash error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		return
	}

	user := models.User{
		ID:                primitive.NewObjectID(),
		Username:          req.Username,
		Email:             req.Email,
		Password:          string(hashed),
		JoinedCommunities: []primitive.ObjectID{},
		CreatedAt:         time.Now(),
	}

	if _, err := h.Store.Users.InsertOne(ctx, user); err != nil {
		log.Printf("Signup insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		return
	}

	token, err := h.Issuer.Issue(user.ID.Hex())
	if err != nil {
		log.Printf("Signup token error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID.Hex(),
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.Store.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		log.Printf("Login lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := h.Issuer.Issue(user.ID.Hex())
	if err != nil {
		log.Printf("Login token error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID.Hex(),
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Me returns the authenticated user with joined community names
// populated. The token may outlive the account, so a verified token
// with no matching user is still a 404.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = h.Store.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Me lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching user data"})
		return
	}

	joined := []gin.H{}
	if len(user.JoinedCommunities) > 0 {
		cursor, err := h.Store.Communities.Find(ctx, bson.M{"_id": bson.M{"$in": user.JoinedCommunities}})
		if err != nil {
			log.Printf("Me communities error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching user data"})
			return
		}
		defer cursor.Close(ctx)

		var communities []models.Community
		if err := cursor.All(ctx, &communities); err != nil {
			log.Printf("Me communities decode error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching user data"})
			return
		}
		for _, community := range communities {
			joined = append(joined, gin.H{"id": community.ID.Hex(), "name": community.Name})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                user.ID.Hex(),
		"username":          user.Username,
		"email":             user.Email,
		"createdAt":         user.CreatedAt,
		"joinedCommunities": joined,
	})
}
