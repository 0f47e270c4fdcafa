package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/riemann/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default geometry as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil { //nolint:gosec // config file, world-readable
				return fmt.Errorf("failed to write geometry: %w", err)
			}
			return nil
		},
	}
}
