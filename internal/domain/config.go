package domain

// ChartConfig holds the decay-model constants and categorization thresholds
// used by the chart computations. Passed explicitly into every computation
// so tests and per-request overrides stay deterministic; never read from
// globals.
type ChartConfig struct {
	InsulinActionMinutes  float64 // duration of insulin action (DIA)
	InsulinPeakMinutes    float64 // peak activity time of rapid-acting insulin
	CarbAbsorptionMinutes float64 // time for a carb entry to fully absorb
	CarbDelayMinutes      float64 // absorption delay after a carb entry
	MicroBolusThreshold   float64 // boluses below this many units are micro-boluses
	MaxOverrideMinutes    int     // longest basal override honored, bounds the fetch lookback
}

// DefaultChartConfig returns the production constants.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		InsulinActionMinutes:  300, // 5 hours, rapid-acting
		InsulinPeakMinutes:    75,
		CarbAbsorptionMinutes: 180,
		CarbDelayMinutes:      10,
		MicroBolusThreshold:   0.3,
		MaxOverrideMinutes:    1440,
	}
}

// MaxLookbackMs returns how far before the query start dose and basal
// events must be fetched so every contribution inside the window is seen.
func (c ChartConfig) MaxLookbackMs() int64 {
	lookback := c.InsulinActionMinutes
	if c.CarbAbsorptionMinutes > lookback {
		lookback = c.CarbAbsorptionMinutes
	}
	if m := float64(c.MaxOverrideMinutes); m > lookback {
		lookback = m
	}
	return int64(lookback) * 60_000
}
