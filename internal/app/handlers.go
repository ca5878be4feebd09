package app

import (
	"github.com/yungbote/specforge-backend/internal/config"
	httpH "github.com/yungbote/specforge-backend/internal/http/handlers"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Chat        *httpH.ChatHandler
	Questions   *httpH.QuestionsHandler
	PromptAdmin *httpH.PromptAdminHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, services Services, repos Repos, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(cfg.Version, cfg.Env),
		Chat:        httpH.NewChatHandler(log, services.SpecGen),
		Questions:   httpH.NewQuestionsHandler(services.SpecGen),
		PromptAdmin: httpH.NewPromptAdminHandler(log, services.PromptCache, repos.Prompts, clients.InvalidationBus),
	}
}
