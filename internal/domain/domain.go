package domain

import "github.com/yungbote/specforge-backend/internal/domain/prompts"

type (
	BasePrompt     = prompts.BasePrompt
	SpecModePrompt = prompts.SpecModePrompt
	AgentPrompt    = prompts.AgentPrompt
)
