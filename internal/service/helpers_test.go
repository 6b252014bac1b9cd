package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Activity{}, &models.HistoryEntry{}, &models.ProductionOrder{}))
	return db
}

func setupFileStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	root := t.TempDir()
	store, err := filestore.New(filestore.Config{Root: root, MaxBytes: 1 << 20}, testLogger())
	require.NoError(t, err)
	return store, root
}

type recordingNotifier struct {
	events []dto.ActivityChangeEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event dto.ActivityChangeEvent) {
	r.events = append(r.events, event)
}

func strPtr(v string) *string {
	return &v
}
