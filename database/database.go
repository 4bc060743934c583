package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tetra/config"
)

// Store bundles the collection handles the handlers work against.
type Store struct {
	Client      *mongo.Client
	Users       *mongo.Collection
	Posts       *mongo.Collection
	Communities *mongo.Collection
}

func Connect(cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	// Ping MongoDB
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDB)

	log.Println("Connected to MongoDB successfully")

	return &Store{
		Client:      client,
		Users:       db.Collection("users"),
		Posts:       db.Collection("posts"),
		Communities: db.Collection("communities"),
	}, nil
}

func (s *Store) Disconnect() error {
	if s == nil || s.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
