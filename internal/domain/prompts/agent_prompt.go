package prompts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgentPrompt carries per-target-agent guidance (v0, cursor, claude-code, ...).
type AgentPrompt struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID      string         `gorm:"column:agent_id;not null;uniqueIndex:idx_agent_prompts_agent_version" json:"agent_id"`
	Version      int            `gorm:"column:version;not null;uniqueIndex:idx_agent_prompts_agent_version" json:"version"`
	Instructions string         `gorm:"column:instructions;type:text;not null" json:"instructions"`
	IsActive     bool           `gorm:"column:is_active;not null;index" json:"is_active"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (AgentPrompt) TableName() string { return "agent_prompts" }

func (p *AgentPrompt) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
