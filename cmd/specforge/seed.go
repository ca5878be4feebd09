package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/specforge-backend/internal/data/db"
	promptrepo "github.com/yungbote/specforge-backend/internal/data/repos/prompts"
	"github.com/yungbote/specforge-backend/internal/data/seed"
	"github.com/yungbote/specforge-backend/internal/prompt"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Upsert prompt fragments from a YAML seed file (embedded defaults when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		var frags []prompt.Fragment
		if len(args) == 1 {
			frags, err = seed.LoadFile(args[0])
		} else {
			frags, err = seed.Default()
		}
		if err != nil {
			return err
		}

		ctx := context.Background()
		cfg.Database.AutoMigrate = true
		store, err := db.Open(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := seed.Apply(ctx, store.DB(), promptrepo.NewPromptRepo(store.DB(), log), frags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "upserted %d prompt fragments\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
