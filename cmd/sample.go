package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maculab/amdsim/internal/config"
)

func newSampleCmd(app *app) *cobra.Command {
	var (
		outPath string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a complete sample configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(outPath); err == nil {
					return fmt.Errorf("%s already exists, pass --force to overwrite", outPath)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check sample path: %w", err)
				}
			}
			if err := os.WriteFile(outPath, []byte(config.SampleTOML), 0o644); err != nil {
				return fmt.Errorf("write sample configuration: %w", err)
			}
			app.logger.Info().Str("path", outPath).Msg("sample configuration written")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "amdsim.toml", "Where to write the sample configuration")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
