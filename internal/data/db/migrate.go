package db

import (
	types "github.com/yungbote/specforge-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.BasePrompt{},
		&types.SpecModePrompt{},
		&types.AgentPrompt{},
	)
}
