package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN adds pragmas", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "room.db"})
		for _, want := range []string{"room.db?", "_busy_timeout=5000", "_foreign_keys=on", "_txlock=immediate"} {
			if !strings.Contains(result, want) {
				t.Errorf("DSN() = %v, missing %v", result, want)
			}
		}
	})

	t.Run("DSN keeps explicit values", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "room.db?_busy_timeout=100"})
		if strings.Count(result, "_busy_timeout") != 1 || !strings.Contains(result, "_busy_timeout=100") {
			t.Errorf("DSN() = %v, should keep caller's busy timeout", result)
		}
	})

	t.Run("BoolValue", func(t *testing.T) {
		if dialect.BoolValue(true) != "1" || dialect.BoolValue(false) != "0" {
			t.Error("BoolValue() should use 1/0 for SQLite")
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		result := dialect.InsertIgnore("session_subjects", "session_id", "subject", "attended_at")
		expected := "INSERT OR IGNORE INTO session_subjects (session_id, subject, attended_at) VALUES (?, ?, ?)"
		if result != expected {
			t.Errorf("InsertIgnore() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("Pgx DriverName", func(t *testing.T) {
		result := NewPgxDialect().DriverName()
		expected := "pgx"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("InsertIgnore", func(t *testing.T) {
		result := dialect.RewriteQuery(dialect.InsertIgnore("daily_sessions", "id", "student_id"))
		expected := "INSERT INTO daily_sessions (id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING"
		if result != expected {
			t.Errorf("InsertIgnore() = %v, want %v", result, expected)
		}
	})

	t.Run("UpsertGoal targets partial index", func(t *testing.T) {
		result := dialect.RewriteQuery(dialect.UpsertGoal())
		if !strings.Contains(result, "WHERE is_active") || !strings.Contains(result, "$9") {
			t.Errorf("UpsertGoal() = %v", result)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN forces parseTime and found rows", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "user:pw@tcp(localhost:3306)/room"})
		expected := "user:pw@tcp(localhost:3306)/room?parseTime=true&clientFoundRows=true"
		if result != expected {
			t.Errorf("DSN() = %v, want %v", result, expected)
		}
	})

	t.Run("UpsertGoal", func(t *testing.T) {
		if !strings.Contains(dialect.UpsertGoal(), "ON DUPLICATE KEY UPDATE") {
			t.Error("UpsertGoal() should use ON DUPLICATE KEY UPDATE for MySQL")
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM students WHERE id = ?",
			expected: "SELECT * FROM students WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM students WHERE id = ?",
			expected: "SELECT * FROM students WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "UPDATE students SET tokens = tokens + ? WHERE id = ? AND teacher_id = ?",
			expected: "UPDATE students SET tokens = tokens + $1 WHERE id = $2 AND teacher_id = $3",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE students SET name = ? WHERE id = ?",
			expected: "UPDATE students SET name = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dbType  string
		driver  string
		wantErr bool
	}{
		{"sqlite", "sqlite3", false},
		{"", "sqlite3", false},
		{"postgres", "postgres", false},
		{"pgx", "pgx", false},
		{"MySQL", "mysql", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			dialect, _, err := DialectFor(tt.dbType, "room.db", "url")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unsupported type")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dialect.DriverName() != tt.driver {
				t.Errorf("DriverName() = %v, want %v", dialect.DriverName(), tt.driver)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (
    id TEXT PRIMARY KEY
);

CREATE INDEX idx_a ON a(id);
`
	stmts := splitStatements(content)
	if len(stmts) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("first statement = %q", stmts[0])
	}
}
