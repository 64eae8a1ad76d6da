// Package mongostore implements the teacher, student, session and goal stores on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	teachersCollection = "teachers"
	studentsCollection = "students"
	sessionsCollection = "dailysessions"
	goalsCollection    = "weeklygoals"
)

// Store holds the MongoDB client and database used by the repositories in this package
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	loc    *time.Location
}

// Connect opens a client, verifies it with a ping and selects dbName.
// Day and week keys are interpreted in loc.
func Connect(ctx context.Context, uri, dbName string, loc *time.Location) (*Store, error) {
	log.Println("Attempting to connect to MongoDB...")

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB is not reachable: %w", err)
	}

	log.Println("Successfully connected to MongoDB!")
	return &Store{client: client, db: client.Database(dbName), loc: loc}, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks that the server is still reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Drop removes the whole database; tests use it to clean up
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique indexes the stores rely on. The student and goal
// indexes are partial so that inactive documents do not block new active ones.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	activeOnly := bson.M{"isActive": true}

	indexes := map[string][]mongo.IndexModel{
		teachersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		studentsCollection: {
			{
				Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(activeOnly),
			},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "day", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "teacherId", Value: 1}, {Key: "day", Value: 1}}},
		},
		goalsCollection: {
			{
				Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "group", Value: 1}, {Key: "weekOf", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(activeOnly),
			},
		},
	}

	for name, idx := range indexes {
		if _, err := s.collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}
