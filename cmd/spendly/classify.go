package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"spendly/internal/cli"
)

func classifyCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:     "classify <text>",
		Short:   "Classify an expense description against a user's taxonomy",
		Example: `  spendly classify --user 7d1c... "almuerzo en el centro 45 quetzales"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			store, err := cli.OpenStore(cmd.Context(), appCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			assistant, err := newAssistant(appCfg, store, store)
			if err != nil {
				return err
			}
			result, err := assistant.ClassifyText(cmd.Context(), userID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id whose categories, accounts and owners are offered")
	return cmd
}
