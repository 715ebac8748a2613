package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/danmuck/loomctl/internal/coordinator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coordinator HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveServiceConfig()
		if err != nil {
			return err
		}
		svc, err := coordinator.NewServiceWithConfig(context.Background(), cfg)
		if err != nil {
			return err
		}
		return svc.Run()
	},
}
