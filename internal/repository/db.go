package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mentalist/internal/model"
)

// DefaultDSN is used when no database location is configured.
const DefaultDSN = "mentalist.db"

// busyTimeout lets a one-shot CLI command wait for a running serve process to finish
// its write instead of failing with SQLITE_BUSY.
const busyTimeout = 5 * time.Second

// NewDB opens the state database and makes sure the kv_entries table exists.
func NewDB(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultDSN
	}
	memory := isMemoryDSN(dsn)
	if !memory {
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		// log.Writer() so that commands which silence the standard logger silence gorm too.
		Logger: logger.New(log.New(log.Writer(), "[gorm] ", log.LstdFlags), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("state db handle: %w", err)
	}
	// Every snapshot write replaces a whole key; one connection keeps them serialized,
	// and an in-memory database only lives as long as its connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.StateEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeout.Milliseconds())
}

func ensureParentDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state db dir %q: %w", dir, err)
	}
	return nil
}
