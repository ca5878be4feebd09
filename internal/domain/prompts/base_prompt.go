package prompts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BasePrompt is a task template keyed by slug (e.g. "spec-generation").
type BasePrompt struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Slug            string         `gorm:"column:slug;not null;uniqueIndex:idx_base_prompts_slug_version" json:"slug"`
	Version         int            `gorm:"column:version;not null;uniqueIndex:idx_base_prompts_slug_version" json:"version"`
	ContractVersion int            `gorm:"column:contract_version;not null" json:"contract_version"`
	PromptTemplate  string         `gorm:"column:prompt_template;type:text;not null" json:"prompt_template"`
	IsActive        bool           `gorm:"column:is_active;not null;index" json:"is_active"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (BasePrompt) TableName() string { return "base_prompts" }

func (p *BasePrompt) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
