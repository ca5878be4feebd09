package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	promptrepo "github.com/yungbote/specforge-backend/internal/data/repos/prompts"
	"github.com/yungbote/specforge-backend/internal/data/seed"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/prompt"
)

type Repos struct {
	Prompts promptrepo.PromptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Prompts: promptrepo.NewPromptRepo(db, log),
	}
}

// seedPrompts upserts the seed file, or the embedded defaults when path is empty.
func seedPrompts(ctx context.Context, log *logger.Logger, db *gorm.DB, repos Repos, path string) error {
	var (
		frags []prompt.Fragment
		err   error
	)
	if path == "" {
		frags, err = seed.Default()
	} else {
		frags, err = seed.LoadFile(path)
	}
	if err != nil {
		return fmt.Errorf("load prompt seed: %w", err)
	}
	n, err := seed.Apply(ctx, db, repos.Prompts, frags)
	if err != nil {
		return fmt.Errorf("apply prompt seed: %w", err)
	}
	log.Info("Seeded prompt fragments", "rows", n, "source", seedSource(path))
	return nil
}

func seedSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
