package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func insertTeacher(t *testing.T, db *DB, id, username string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO teachers (id, username, email, password_hash, first_name, last_name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, username, username+"@example.com", "hash", "Test", "Teacher", true, now, now)
	if err != nil {
		t.Fatalf("Failed to insert teacher: %v", err)
	}
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	tables := []string{"teachers", "students", "purchases", "daily_sessions", "session_subjects", "weekly_goals"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		now := time.Now().UTC()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teachers (id, username, email, password_hash, first_name, last_name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"t-1", "committed", "committed@example.com", "hash", "A", "B", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teachers WHERE username = ?", "committed").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 teacher, got %d", count)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teachers (id, username, email, password_hash, first_name, last_name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"t-2", "rolledback", "rolledback@example.com", "hash", "A", "B", now, now); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx should return the callback error, got %v", err)
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teachers WHERE username = ?", "rolledback").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 teachers after rollback, got %d", count)
	}
}

// TestUniqueConstraints checks the partial unique indexes and driver error classification
func TestUniqueConstraints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	insertTeacher(t, db, "t-1", "alpha")

	insertStudent := func(id string, active bool) error {
		now := time.Now().UTC()
		_, err := db.ExecContext(ctx,
			`INSERT INTO students (id, teacher_id, name, group_tags, primary_group, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, "t-1", "SAM", "reading", "reading", active, now, now)
		return err
	}

	if err := insertStudent("s-1", true); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := insertStudent("s-2", true)
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate active name should be a unique violation, got %v", err)
	}

	if _, err := db.ExecContext(ctx, "UPDATE students SET is_active = ? WHERE id = ?", false, "s-1"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if err := insertStudent("s-3", true); err != nil {
		t.Errorf("name should be reusable after deactivation: %v", err)
	}

	if IsUniqueViolation(nil) || IsUniqueViolation(errors.New("other")) {
		t.Error("IsUniqueViolation should be false for non-driver errors")
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	insertTeacher(t, db, "t-1", "concurrent")

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var username string
			err := db.QueryRowContext(ctx, "SELECT username FROM teachers WHERE email = ?", "concurrent@example.com").Scan(&username)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if username != "concurrent" {
				t.Errorf("Expected username 'concurrent', got '%s'", username)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
