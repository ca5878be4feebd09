package prompts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SpecModePrompt struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Mode         string         `gorm:"column:mode;not null;uniqueIndex:idx_spec_mode_prompts_mode_version" json:"mode"`
	Version      int            `gorm:"column:version;not null;uniqueIndex:idx_spec_mode_prompts_mode_version" json:"version"`
	Instructions string         `gorm:"column:instructions;type:text;not null" json:"instructions"`
	IsActive     bool           `gorm:"column:is_active;not null;index" json:"is_active"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (SpecModePrompt) TableName() string { return "spec_mode_prompts" }

func (p *SpecModePrompt) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
