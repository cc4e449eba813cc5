package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Maker holds the inventory-aware market-maker coefficients.
type Maker struct {
	BaseSpread   float64 `yaml:"base_spread"`   // baseline relative spread
	BaseVolume   float64 `yaml:"base_volume"`   // baseline quoted size
	SkewAlpha    float64 `yaml:"skew_alpha"`    // price skew per unit inventory
	VolumeBeta   float64 `yaml:"volume_beta"`   // size shrink per unit inventory
	SpreadGamma  float64 `yaml:"spread_gamma"`  // extra half-spread per |inventory|
	InventoryCap int64   `yaml:"inventory_cap"` // soft limit, inventory clipped to ±cap
}

// Hurst holds the rolling rescaled-range estimator parameters.
type Hurst struct {
	Window    int `yaml:"window"`
	MinChunk  int `yaml:"min_chunk"`
	MaxChunks int `yaml:"max_chunks"`
}

// Config is the immutable parameter set for one simulation run.
type Config struct {
	Ticks        int     `yaml:"ticks"`
	InitialPrice float64 `yaml:"initial_price"`
	TickSize     float64 `yaml:"tick_size"`

	LambdaNoiseBuy  float64 `yaml:"lambda_noise_buy"`
	LambdaNoiseSell float64 `yaml:"lambda_noise_sell"`
	LambdaTrend     float64 `yaml:"lambda_trend"`
	TrendWindow     int     `yaml:"trend_window"`

	PMarketBuy     float64 `yaml:"p_market_buy"`
	PMarketSell    float64 `yaml:"p_market_sell"`
	MeanVolumeBuy  float64 `yaml:"mean_volume_buy"`
	MeanVolumeSell float64 `yaml:"mean_volume_sell"`
	LimitDelta     float64 `yaml:"limit_delta"` // relative price jitter for limit orders
	PCancel        float64 `yaml:"p_cancel"`

	Maker Maker `yaml:"maker"`

	// MakerFillsOnly switches the inventory update from counting every
	// market fill (the order-flow-imbalance proxy) to counting only volume
	// that executed against the maker's own quotes.
	MakerFillsOnly bool `yaml:"maker_fills_only"`

	DepthLevels         int     `yaml:"depth_levels"`
	ResilienceThreshold float64 `yaml:"resilience_threshold"`
	ResilienceHorizon   int     `yaml:"resilience_horizon"`
	Hurst               Hurst   `yaml:"hurst"`
}

// Default returns the stock parameter set for a 300-tick run at price 100.
func Default() *Config {
	return &Config{
		Ticks:        300,
		InitialPrice: 100.0,
		TickSize:     0.01,

		LambdaNoiseBuy:  20,
		LambdaNoiseSell: 20,
		LambdaTrend:     10,
		TrendWindow:     2,

		PMarketBuy:     0.8,
		PMarketSell:    0.8,
		MeanVolumeBuy:  10,
		MeanVolumeSell: 10,
		LimitDelta:     0.02,
		PCancel:        0.025,

		Maker: Maker{
			BaseSpread:   0.003,
			BaseVolume:   150,
			SkewAlpha:    0.00005,
			VolumeBeta:   0.0004,
			SpreadGamma:  0.00001,
			InventoryCap: 5000,
		},

		DepthLevels:         5,
		ResilienceThreshold: 0.9,
		ResilienceHorizon:   100,
		Hurst: Hurst{
			Window:    100,
			MinChunk:  20,
			MaxChunks: 100,
		},
	}
}

// Load reads a yaml file over the defaults. A missing path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func checkProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("config: %s must be within [0, 1], got %g", name, p)
	}
	return nil
}

// Validate rejects broken parameters up front so the run loop never has to.
func (c *Config) Validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("config: ticks must be positive, got %d", c.Ticks)
	}
	if c.InitialPrice <= 0 {
		return fmt.Errorf("config: initial_price must be positive, got %g", c.InitialPrice)
	}
	if c.TickSize <= 0 {
		return fmt.Errorf("config: tick_size must be positive, got %g", c.TickSize)
	}
	if c.TrendWindow <= 0 {
		return fmt.Errorf("config: trend_window must be positive, got %d", c.TrendWindow)
	}
	if c.LambdaNoiseBuy < 0 || c.LambdaNoiseSell < 0 || c.LambdaTrend < 0 {
		return fmt.Errorf("config: poisson intensities must be non-negative")
	}
	if c.MeanVolumeBuy < 0 || c.MeanVolumeSell < 0 {
		return fmt.Errorf("config: mean volumes must be non-negative")
	}
	if c.LimitDelta < 0 {
		return fmt.Errorf("config: limit_delta must be non-negative, got %g", c.LimitDelta)
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"p_market_buy", c.PMarketBuy},
		{"p_market_sell", c.PMarketSell},
		{"p_cancel", c.PCancel},
	} {
		if err := checkProbability(p.name, p.v); err != nil {
			return err
		}
	}
	if c.Maker.BaseSpread < 0 || c.Maker.SpreadGamma < 0 {
		return fmt.Errorf("config: maker spread coefficients must be non-negative")
	}
	if c.Maker.BaseVolume <= 0 {
		return fmt.Errorf("config: maker base_volume must be positive, got %g", c.Maker.BaseVolume)
	}
	if c.Maker.InventoryCap <= 0 {
		return fmt.Errorf("config: maker inventory_cap must be positive, got %d", c.Maker.InventoryCap)
	}
	if c.DepthLevels <= 0 {
		return fmt.Errorf("config: depth_levels must be positive, got %d", c.DepthLevels)
	}
	if c.ResilienceThreshold <= 0 || c.ResilienceThreshold >= 1 {
		return fmt.Errorf("config: resilience_threshold must be within (0, 1), got %g", c.ResilienceThreshold)
	}
	if c.ResilienceHorizon <= 0 {
		return fmt.Errorf("config: resilience_horizon must be positive, got %d", c.ResilienceHorizon)
	}
	if c.Hurst.Window <= 0 {
		return fmt.Errorf("config: hurst window must be positive, got %d", c.Hurst.Window)
	}
	if c.Hurst.MinChunk <= 1 {
		return fmt.Errorf("config: hurst min_chunk must be greater than 1, got %d", c.Hurst.MinChunk)
	}
	if c.Hurst.MaxChunks < 2 {
		return fmt.Errorf("config: hurst max_chunks must be at least 2, got %d", c.Hurst.MaxChunks)
	}
	return nil
}
