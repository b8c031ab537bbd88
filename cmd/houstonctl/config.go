package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundcrew/houston/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a houston config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "config is valid")
			fmt.Fprintf(out, "  mode:  %s\n", cfg.Bot.Mode)
			fmt.Fprintf(out, "  store: %s\n", cfg.Store.Driver)
			if cfg.Schedule.MonthlyReport != "" {
				fmt.Fprintf(out, "  monthly report: %s -> %d chats\n", cfg.Schedule.MonthlyReport, len(cfg.Schedule.Chats))
			}
			return nil
		},
	})
	return cmd
}
