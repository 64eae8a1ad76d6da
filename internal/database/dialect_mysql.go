package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL. MySQL has no partial indexes, so the
// "active only" uniqueness rules are expressed with stored generated columns that are
// NULL for inactive rows (see migrations/mysql).
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime so DATETIME columns scan into time.Time, and clientFoundRows so
// RowsAffected counts matched rows like the other drivers do
func (d *MySQLDialect) DSN(config DialectConfig) string {
	dsn := withParam(config.URL, "parseTime", "true")
	return withParam(dsn, "clientFoundRows", "true")
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) BoolValue(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (d *MySQLDialect) InsertIgnore(table string, columns ...string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(len(columns)))
}

func (d *MySQLDialect) UpsertGoal() string {
	return "INSERT INTO weekly_goals (id, teacher_id, grp, topic, goal, icon, week_of, is_active, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?) " +
		"ON DUPLICATE KEY UPDATE topic = VALUES(topic), goal = VALUES(goal), icon = VALUES(icon), updated_at = VALUES(updated_at)"
}
