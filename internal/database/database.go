package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/engtrack/internal/models"
)

// Connect opens the database named by url. postgres:// and postgresql:// URLs use the
// PostgreSQL driver; sqlite:// URLs and bare paths use SQLite.
func Connect(url string) (*gorm.DB, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("database url must not be empty")
	}

	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		db, err := gorm.Open(postgres.Open(url), config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	default:
		db, err := gorm.Open(sqlite.Open(sqliteDSN(url)), config)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil
	}
}

// Migrate creates or updates the schema. Activities precede history entries so the
// cascading foreign key can be created.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Activity{}, &models.HistoryEntry{}, &models.ProductionOrder{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func sqliteDSN(url string) string {
	path := strings.TrimPrefix(url, "sqlite://")
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_foreign_keys=on"
}
