package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"
)

const (
	createUsersTableSQL = `
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	createGenerationsTableSQL = `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id),
		prompt TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	createGenerationsUserIndexSQL = `CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations (user_id);`

	// Columns added after the first release. Each is applied once; a
	// duplicate column error means the database is already current.
	addTermsAcceptedAtColumnSQL = `ALTER TABLE users ADD COLUMN terms_accepted_at DATETIME;`
	addCategoryColumnSQL        = `ALTER TABLE generations ADD COLUMN category TEXT NOT NULL DEFAULT '';`
	addPromptHashColumnSQL      = `ALTER TABLE generations ADD COLUMN prompt_hash TEXT NOT NULL DEFAULT '';`
)

// InitDB opens the sqlite database, applies pragmas and runs migrations.
func InitDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zap.L().Info("Running database migrations...", zap.String("path", dbPath))
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	zap.L().Info("Database migration completed.")

	return db, nil
}

// OpenGorm wraps an initialized connection pool in a gorm handle.
func OpenGorm(sqlDB *sql.DB, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		Conn:       sqlDB,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}

// Open is InitDB followed by OpenGorm with gorm logging silenced.
func Open(dbPath string) (*gorm.DB, error) {
	sqlDB, err := InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	db, err := OpenGorm(sqlDB, gormlogger.Silent)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	initialStatements := []string{
		createUsersTableSQL,
		createGenerationsTableSQL,
		createGenerationsUserIndexSQL,
	}

	for _, stmt := range initialStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute initial migration statement: %w\nSQL: %s", err, stmt)
		}
	}

	additive := []string{
		addTermsAcceptedAtColumnSQL,
		addCategoryColumnSQL,
		addPromptHashColumnSQL,
	}
	for _, stmt := range additive {
		if _, err := db.Exec(stmt); err != nil {
			if !isDuplicateColumnError(err) {
				return fmt.Errorf("failed to execute add column statement: %w\nSQL: %s", err, stmt)
			}
			zap.L().Debug("Column already exists", zap.String("sql", stmt))
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate column name") || strings.Contains(err.Error(), "already exists")
}
