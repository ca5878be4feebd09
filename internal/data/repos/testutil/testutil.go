package testutil

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/specforge-backend/internal/data/db"
	types "github.com/yungbote/specforge-backend/internal/domain"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated in-memory sqlite database private to tb.
// The pool is pinned to one connection since each sqlite :memory: connection is its own database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

func SeedBase(tb testing.TB, gdb *gorm.DB, slug string, version, contractVersion int, text string, active bool) *types.BasePrompt {
	tb.Helper()
	row := &types.BasePrompt{Slug: slug, Version: version, ContractVersion: contractVersion, PromptTemplate: text, IsActive: active}
	if err := gdb.WithContext(context.Background()).Create(row).Error; err != nil {
		tb.Fatalf("seed base prompt: %v", err)
	}
	return row
}

func SeedMode(tb testing.TB, gdb *gorm.DB, mode string, version int, text string, active bool) *types.SpecModePrompt {
	tb.Helper()
	row := &types.SpecModePrompt{Mode: mode, Version: version, Instructions: text, IsActive: active}
	if err := gdb.WithContext(context.Background()).Create(row).Error; err != nil {
		tb.Fatalf("seed spec mode prompt: %v", err)
	}
	return row
}

func SeedAgent(tb testing.TB, gdb *gorm.DB, agentID string, version int, text string, active bool) *types.AgentPrompt {
	tb.Helper()
	row := &types.AgentPrompt{AgentID: agentID, Version: version, Instructions: text, IsActive: active}
	if err := gdb.WithContext(context.Background()).Create(row).Error; err != nil {
		tb.Fatalf("seed agent prompt: %v", err)
	}
	return row
}
