package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete the local data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.DataDir
			a.log.Info("cleaning local data", "path", dir)
			if err := os.RemoveAll(dir); err != nil {
				a.log.Error("failed to clean data", "error", err)
				return fmt.Errorf("clean local data: %w", err)
			}
			a.log.Info("cleanup complete")
			return nil
		},
	}
}
