// Package app opens the configured storage backend for the server and the maintenance tool.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"resourceroom/internal/cache"
	"resourceroom/internal/config"
	"resourceroom/internal/database"
	"resourceroom/internal/repository"
	"resourceroom/internal/repository/mongostore"
	"resourceroom/internal/service"
)

// Stores bundles the repositories of one backend
type Stores struct {
	Backend  string
	Teachers service.TeacherStore
	Students service.StudentStore
	Sessions service.SessionStore
	Goals    service.GoalStore

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backend is reachable
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend connection
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

// OpenStores connects to the backend named by DB_TYPE and prepares its schema:
// migrations for SQL databases, indexes for MongoDB
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	loc := cfg.Location()

	if strings.EqualFold(cfg.DatabaseType, "mongodb") || strings.EqualFold(cfg.DatabaseType, "mongo") {
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, loc)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(ctx)
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		log.Printf("MongoDB connection established (database: %s)", cfg.MongoDatabase)

		return &Stores{
			Backend:  "mongodb",
			Teachers: mongostore.NewTeacherRepository(store),
			Students: mongostore.NewStudentRepository(store),
			Sessions: mongostore.NewSessionRepository(store),
			Goals:    mongostore.NewGoalRepository(store),
			ping:     store.Ping,
			close:    store.Close,
		}, nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Migrations completed successfully")

	return &Stores{
		Backend:  cfg.DatabaseType,
		Teachers: repository.NewTeacherRepository(db),
		Students: repository.NewStudentRepository(db),
		Sessions: repository.NewSessionRepository(db, loc),
		Goals:    repository.NewGoalRepository(db, loc),
		ping:     db.PingContext,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}

// OpenGoalCache connects to Redis when REDIS_URL is set. Without it, or when Redis is
// unreachable, goals are read straight from the store.
func OpenGoalCache(ctx context.Context, cfg *config.Config) (*cache.GoalCache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	goalCache, err := cache.NewGoalCache(connectCtx, cfg.RedisURL, cfg.GoalCacheTTL)
	if err != nil {
		return nil, err
	}
	log.Printf("Goal cache enabled (ttl: %s)", cfg.GoalCacheTTL)
	return goalCache, nil
}
