package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"market-sim/src/config"
	"market-sim/src/logger"
	"market-sim/src/sim"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "market-sim",
		Short: "Synthetic limit-order-book market simulator",
		Long: `market-sim runs a tick-driven limit-order-book simulation with noise
traders, trend followers and an inventory-aware market maker, then derives
microstructure analytics (liquidity, resilience, rolling Hurst, spectral
slope) from the resulting price series.`,
		RunE:          runSimulation,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.String("config", "", "Path to a yaml config file (defaults used when empty)")
	flags.Int("ticks", 0, "Override the configured tick count")
	flags.Uint64("seed", 42, "RNG seed; equal seeds reproduce equal runs")
	flags.String("out", "spectrum.csv", "Output path for the frequency/power CSV")
	flags.String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	flags.Bool("pretty", false, "Human-readable console logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	seed, _ := flags.GetUint64("seed")
	outPath, _ := flags.GetString("out")
	level, _ := flags.GetString("log-level")
	pretty, _ := flags.GetBool("pretty")

	log := logger.New(level, pretty)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flags.Changed("ticks") {
		cfg.Ticks, _ = flags.GetInt("ticks")
	}

	s, err := sim.New(cfg, seed, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("ticks", cfg.Ticks).
		Float64("initial_price", cfg.InitialPrice).
		Uint64("seed", seed).
		Msg("starting simulation")

	start := time.Now()
	series := s.Run()
	report := sim.BuildReport(cfg, series, s.Inventory(), time.Since(start))

	if err := writeSpectrum(outPath, report); err != nil {
		return err
	}

	lastBar := series.Bars[len(series.Bars)-1]
	log.Info().
		Str("run_id", report.RunID.String()).
		Dur("elapsed", report.Elapsed).
		Float64("final_close", lastBar.Close).
		Int64("final_inventory", report.FinalInventory).
		Float64("spectral_alpha", report.Spectrum.Alpha).
		Float64("spectral_hurst", report.Spectrum.Hurst).
		Str("spectrum_csv", outPath).
		Msg("simulation complete")

	return nil
}

func writeSpectrum(path string, report *sim.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create spectrum output: %w", err)
	}
	defer f.Close()

	if err := report.Spectrum.WriteCSV(f); err != nil {
		return fmt.Errorf("write spectrum output: %w", err)
	}
	return nil
}
