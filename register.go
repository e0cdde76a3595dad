package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digitalocean/registration-wizard/pkg/tui"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Fill in the registration wizard in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		registration, posts := newServices(cfg)
		if err := tui.Run(cmd.Context(), registration, posts); err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
		return nil
	},
}
