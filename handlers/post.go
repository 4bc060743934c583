package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tetra/database"
	"tetra/models"
)

// writeRetries bounds the compare-and-swap loop used for vote and
// comment writes. The version field on the post guards against two
// requests saving over each other.
const writeRetries = 3

type PostHandler struct {
	Store *database.Store
}

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=300"`
	Content     string `json:"content" binding:"required,min=1"`
	CommunityID string `json:"communityId" binding:"required"`
}

type UpdatePostRequest struct {
	Title   string `json:"title" binding:"omitempty,max=300"`
	Content string `json:"content"`
}

type VoteRequest struct {
	Vote int `json:"vote"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	skip := (page - 1) * limit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: int64(skip)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorDoc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorDoc"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "communities"},
			{Key: "localField", Value: "community"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "communityDoc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$communityDoc"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := h.Store.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("List posts aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching posts"})
		return
	}
	defer cursor.Close(ctx)

	var results []struct {
		models.Post  `bson:",inline"`
		AuthorDoc    *models.User      `bson:"authorDoc"`
		CommunityDoc *models.Community `bson:"communityDoc"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		log.Printf("List posts decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching posts"})
		return
	}

	total, err := h.Store.Posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Printf("List posts count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching posts"})
		return
	}

	posts := make([]gin.H, len(results))
	for i, r := range results {
		posts[i] = postItem(&r.Post, r.AuthorDoc, r.CommunityDoc)
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"currentPage": page,
		"totalPages":  totalPages,
		"totalPosts":  total,
	})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	communityID, err := primitive.ObjectIDFromHex(req.CommunityID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := h.Store.Communities.CountDocuments(ctx, bson.M{"_id": communityID})
	if err != nil {
		log.Printf("Create post community check error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating post"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Community not found"})
		return
	}

	now := time.Now()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		Title:     req.Title,
		Content:   req.Content,
		Author:    userID,
		Community: communityID,
		Voters:    []models.Voter{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.Store.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("Create post insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating post"})
		return
	}

	resp, err := h.loadPost(ctx, post.ID)
	if err != nil {
		log.Printf("Create post populate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating post"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PostHandler) Get(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.loadPost(ctx, postID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("Get post error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching post"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Update edits title and/or content. The filter matches on author as
// well as id, so a non-owner gets the same 404 as a missing post and
// learns nothing about which it was.
func (h *PostHandler) Update(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found or unauthorized"})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Content != "" {
		set["content"] = req.Content
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := h.Store.Posts.UpdateOne(ctx,
		bson.M{"_id": postID, "author": userID},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		log.Printf("Update post error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating post"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found or unauthorized"})
		return
	}

	resp, err := h.loadPost(ctx, postID)
	if err != nil {
		log.Printf("Update post populate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating post"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) Delete(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found or unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := h.Store.Posts.DeleteOne(ctx, bson.M{"_id": postID, "author": userID})
	if err != nil {
		log.Printf("Delete post error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting post"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found or unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.Vote != 1 && req.Vote != -1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vote value"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for attempt := 0; attempt < writeRetries; attempt++ {
		var post models.Post
		err := h.Store.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		if err != nil {
			log.Printf("Vote load error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing vote"})
			return
		}

		votes, err := post.ApplyVote(userID, req.Vote)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vote value"})
			return
		}

		res, err := h.Store.Posts.UpdateOne(ctx,
			bson.M{"_id": postID, "version": post.Version},
			bson.M{
				"$set": bson.M{
					"voters":    post.Voters,
					"votes":     post.Votes,
					"updatedAt": time.Now(),
				},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			log.Printf("Vote save error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing vote"})
			return
		}
		if res.ModifiedCount == 1 {
			c.JSON(http.StatusOK, gin.H{"votes": votes})
			return
		}
		// Someone else saved first; reload and reapply.
	}

	log.Printf("Vote on %s dropped after %d conflicts", postID.Hex(), writeRetries)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing vote"})
}

func (h *PostHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for attempt := 0; attempt < writeRetries; attempt++ {
		var post models.Post
		err := h.Store.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		if err != nil {
			log.Printf("Comment load error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding comment"})
			return
		}

		if _, err := post.AddComment(userID, req.Content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Comment content cannot be empty"})
			return
		}

		res, err := h.Store.Posts.UpdateOne(ctx,
			bson.M{"_id": postID, "version": post.Version},
			bson.M{
				"$set": bson.M{
					"comments":  post.Comments,
					"updatedAt": time.Now(),
				},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			log.Printf("Comment save error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding comment"})
			return
		}
		if res.ModifiedCount == 1 {
			resp, err := h.loadPost(ctx, postID)
			if err != nil {
				log.Printf("Comment populate error: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding comment"})
				return
			}
			c.JSON(http.StatusCreated, resp)
			return
		}
	}

	log.Printf("Comment on %s dropped after %d conflicts", postID.Hex(), writeRetries)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding comment"})
}

// loadPost fetches a post with author, community and comment authors
// populated. Returns mongo.ErrNoDocuments when the post is missing.
func (h *PostHandler) loadPost(ctx context.Context, postID primitive.ObjectID) (gin.H, error) {
	var post models.Post
	if err := h.Store.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		return nil, err
	}

	ids := []primitive.ObjectID{post.Author}
	for _, comment := range post.Comments {
		ids = append(ids, comment.Author)
	}

	cursor, err := h.Store.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	var community *models.Community
	var found models.Community
	err = h.Store.Communities.FindOne(ctx, bson.M{"_id": post.Community}).Decode(&found)
	if err == nil {
		community = &found
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	resp := postItem(&post, byID[post.Author], community)

	comments := make([]gin.H, len(post.Comments))
	for i, comment := range post.Comments {
		entry := gin.H{
			"content":   comment.Content,
			"createdAt": comment.CreatedAt,
			"author":    gin.H{"id": comment.Author.Hex()},
		}
		if u, ok := byID[comment.Author]; ok {
			entry["author"] = gin.H{"id": u.ID.Hex(), "username": u.Username}
		}
		comments[i] = entry
	}
	resp["comments"] = comments

	return resp, nil
}

// postItem is the list-level shape: populated references, vote total,
// comment count, no comment bodies.
func postItem(p *models.Post, author *models.User, community *models.Community) gin.H {
	item := gin.H{
		"id":           p.ID.Hex(),
		"title":        p.Title,
		"content":      p.Content,
		"votes":        p.Votes,
		"commentCount": len(p.Comments),
		"createdAt":    p.CreatedAt,
		"updatedAt":    p.UpdatedAt,
	}

	if author != nil {
		item["author"] = gin.H{"id": author.ID.Hex(), "username": author.Username}
	} else {
		item["author"] = gin.H{"id": p.Author.Hex()}
	}

	if community != nil {
		item["community"] = gin.H{"id": community.ID.Hex(), "name": community.Name}
	} else {
		item["community"] = gin.H{"id": p.Community.Hex()}
	}

	return item
}
