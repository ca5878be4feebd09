package app

import (
	"fmt"

	"github.com/yungbote/specforge-backend/internal/completion"
	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/engine/registry"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/prompt"
	"github.com/yungbote/specforge-backend/internal/questions"
	"github.com/yungbote/specforge-backend/internal/specgen"
)

type Services struct {
	Provider    *registry.Provider
	PromptCache *prompt.Cache
	Composer    *prompt.Composer
	SpecGen     *specgen.Service
}

func wireServices(log *logger.Logger, cfg *config.Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	provider, err := registry.New(cfg.Provider)
	if err != nil {
		return Services{}, fmt.Errorf("init provider: %w", err)
	}
	log.Info("LLM provider ready", "type", provider.Type, "model", provider.Model)

	cache := prompt.NewCache(repos.Prompts, prompt.CacheOptions{
		TTL:        cfg.Prompts.CacheTTL.Duration,
		MaxEntries: cfg.Prompts.CacheMaxEntries,
		Logger:     log,
	})
	composer := prompt.NewComposer(cache, log)
	streamer := completion.NewStreamer(provider.Engine, completion.Options{
		Model:        provider.Model,
		Generate:     provider.Options,
		PingInterval: cfg.Provider.PingInterval.Duration,
		Logger:       log,
	})
	gen := questions.NewGenerator(provider.Engine, provider.Model, log)

	return Services{
		Provider:    provider,
		PromptCache: cache,
		Composer:    composer,
		SpecGen: specgen.NewService(composer, streamer, gen, specgen.Options{
			MaxPromptLength:    cfg.HTTP.MaxPromptLength,
			QuestionSetVersion: cfg.Prompts.QuestionSetVersion,
		}, log),
	}, nil
}
