package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/specforge-backend/internal/contract"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate a generated spec against the output contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			b   []byte
			err error
		)
		if args[0] == "-" {
			b, err = io.ReadAll(cmd.InOrStdin())
		} else {
			b, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		res := contract.Validate(string(b))
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Valid {
			return fmt.Errorf("%d contract issue(s)", len(res.Issues))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
