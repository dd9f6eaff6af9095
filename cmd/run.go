package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maculab/amdsim/internal/adapters/render/summary"
	"github.com/maculab/amdsim/internal/adapters/report"
	"github.com/maculab/amdsim/internal/config"
	"github.com/maculab/amdsim/internal/ports"
	"github.com/maculab/amdsim/internal/sim"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		configPath string
		outDir     string
		seed       int64
		patients   bool
		asJSON     bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			compiled, err := cfg.Compile()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			runID := app.newRunID()
			log := app.logger.With().Str("run_id", runID).Logger()
			log.Info().
				Str("mode", compiled.Mode).
				Int("population", compiled.Population).
				Int("horizon_days", compiled.HorizonDays).
				Int64("seed", compiled.Seed).
				Msg("starting simulation")

			started := app.now()
			result, err := sim.NewEngine(compiled).Run()
			if err != nil {
				return fmt.Errorf("run simulation: %w", err)
			}
			result.RunID = runID

			log.Info().
				Int("visits", result.Stats.Visits).
				Int("injections", result.Stats.Injections).
				Int("dropped_visits", result.Stats.DroppedVisits).
				Dur("elapsed", app.now().Sub(started)).
				Msg("simulation finished")

			writer := report.NewWriter(outDir, patients)
			if err := writer.Write(cmd.Context(), result); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			log.Info().Str("path", writer.SummaryPath()).Msg("report written")

			if quiet {
				return nil
			}
			if asJSON {
				encoded, err := json.MarshalIndent(struct {
					RunID       string
					Seed        int64
					Mode        string
					Population  int
					HorizonDays int
					Stats       ports.RunStats
				}{runID, result.Seed, result.Mode, result.Population, result.HorizonDay, result.Stats}, "", "  ")
				if err != nil {
					return fmt.Errorf("encode summary: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary.Render(result))
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the simulation configuration (TOML)")
	cmd.Flags().StringVar(&outDir, "out", "report", "Directory for run artifacts")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured random seed")
	cmd.Flags().BoolVar(&patients, "patients", false, "Also write per-patient visit histories (patients.json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON instead of styled text")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the terminal summary")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
