package sim

import (
	"time"

	"github.com/google/uuid"

	"market-sim/src/config"
	"market-sim/src/quant"
)

// Report bundles the raw series with the derived microstructure analytics
// for the external sinks (export, plotting).
type Report struct {
	RunID  uuid.UUID
	Series *Series

	Liquidity      []float64 // weighted depth per tick
	SlopeLiquidity []float64
	Resilience     []float64 // recovery ticks per shock tick, NaN elsewhere
	Hurst          []float64 // rolling R/S estimate, NaN during warm-up
	Spectrum       *quant.Spectrum

	FinalInventory int64
	Elapsed        time.Duration
}

// BuildReport runs the post-run analytics over a finished series.
func BuildReport(cfg *config.Config, series *Series, finalInventory int64, elapsed time.Duration) *Report {
	liq := quant.WeightedLiquidity(series.DepthBid, series.DepthAsk)
	closes := series.Closes()

	return &Report{
		RunID:          uuid.New(),
		Series:         series,
		Liquidity:      liq,
		SlopeLiquidity: quant.SlopeLiquidity(series.DepthBid, series.DepthAsk),
		Resilience:     quant.ResilienceTimes(liq, cfg.ResilienceThreshold, cfg.ResilienceHorizon),
		Hurst:          quant.RollingHurst(closes, cfg.Hurst.Window, cfg.Hurst.MinChunk, cfg.Hurst.MaxChunks),
		Spectrum:       quant.AnalyzeSpectrum(closes),
		FinalInventory: finalInventory,
		Elapsed:        elapsed,
	}
}
