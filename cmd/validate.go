package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maculab/amdsim/internal/config"
)

func newValidateCmd(app *app) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a simulation configuration without running it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			compiled, err := cfg.Compile()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			app.logger.Info().Str("path", configPath).Msg("configuration valid")
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"valid: mode=%s population=%d horizon_days=%d clinicians=%d\n",
				compiled.Mode, compiled.Population, compiled.HorizonDays, len(compiled.Clinicians.Profiles))
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the simulation configuration (TOML)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
