package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// DSN applies the pragmas per connection. A PRAGMA executed on *sql.DB only reaches one
// pooled connection, so busy timeout, foreign keys and WAL go through the DSN instead.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	dsn := config.Path
	if dsn == ":memory:" {
		return dsn
	}
	dsn = withParam(dsn, "_busy_timeout", "5000")
	dsn = withParam(dsn, "_foreign_keys", "on")
	dsn = withParam(dsn, "_journal_mode", "WAL")
	dsn = withParam(dsn, "_txlock", "immediate")
	return dsn
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) BoolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (d *SQLiteDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(len(columns)))
}

func (d *SQLiteDialect) UpsertGoal() string {
	return `
		INSERT INTO weekly_goals (id, teacher_id, grp, topic, goal, icon, week_of, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (teacher_id, grp, week_of) WHERE is_active = 1
		DO UPDATE SET topic = excluded.topic, goal = excluded.goal, icon = excluded.icon, updated_at = excluded.updated_at
	`
}
