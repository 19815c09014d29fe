package profile

// Formula coefficients and bounds. The floors double as the values reported when there
// is nothing to measure, see FloorOverrides.
const (
	notionalSurplusShare = 0.35
	notionalBalanceShare = 0.20

	// MinNotionalUSDDay is the smallest daily notional ever proposed.
	MinNotionalUSDDay = 25.0

	volReferenceUnit = 0.01
	bpsPerUnit       = 10000.0

	// FallbackSurplusVolBps stands in for volatility when none was observed.
	FallbackSurplusVolBps = 100.0

	lossLimitVolMultiple = 3.0

	MinDailyLossLimitBps = 8.0
	MaxDailyLossLimitBps = 40.0

	inventoryBandSurplusUnit = 25.0

	MinInventoryBand     = 0.5
	MaxInventoryBand     = 3.0
	NeutralInventoryBand = 1.0

	// MinEdgeBpsBaseline is constant and reported for schema completeness.
	MinEdgeBpsBaseline = 1.0
)

// PolicyOverride is a proposed set of trading-policy limits. Nothing in this package
// enforces them.
type PolicyOverride struct {
	MaxNotionalUSDDay  float64 `json:"max_notional_usd_day"`
	DailyLossLimitBps  float64 `json:"daily_loss_limit_bps"`
	InventoryBand      float64 `json:"inventory_band"`
	MinEdgeBpsBaseline float64 `json:"min_edge_bps_baseline"`
}

// ProposeOverrides maps a feature set onto bounded policy values.
func ProposeOverrides(f FeatureSet) PolicyOverride {
	maxNotional := clamp(
		notionalSurplusShare*f.AvgDailySurplus,
		MinNotionalUSDDay,
		notionalBalanceShare*f.ClosingBalance,
	)

	surplusVolBps := FallbackSurplusVolBps
	if f.SurplusVolatility > 0 {
		surplusVolBps = (f.SurplusVolatility / volReferenceUnit) * bpsPerUnit
	}
	lossLimit := clamp(lossLimitVolMultiple*surplusVolBps, MinDailyLossLimitBps, MaxDailyLossLimitBps)

	band := NeutralInventoryBand
	if f.AvgDailySurplus > 0 {
		band = clamp(f.AvgDailySurplus/inventoryBandSurplusUnit, MinInventoryBand, MaxInventoryBand)
	}

	return PolicyOverride{
		MaxNotionalUSDDay:  maxNotional,
		DailyLossLimitBps:  lossLimit,
		InventoryBand:      band,
		MinEdgeBpsBaseline: MinEdgeBpsBaseline,
	}
}

// FloorOverrides is the most conservative proposal: every bounded field at its floor and
// the inventory band neutral. It is returned when there are no periods to merge.
func FloorOverrides() PolicyOverride {
	return PolicyOverride{
		MaxNotionalUSDDay:  MinNotionalUSDDay,
		DailyLossLimitBps:  MinDailyLossLimitBps,
		InventoryBand:      NeutralInventoryBand,
		MinEdgeBpsBaseline: MinEdgeBpsBaseline,
	}
}

// Rounded returns the presentation form of the proposal.
func (o PolicyOverride) Rounded() PolicyOverride {
	return PolicyOverride{
		MaxNotionalUSDDay:  round(o.MaxNotionalUSDDay, 2),
		DailyLossLimitBps:  round(o.DailyLossLimitBps, 1),
		InventoryBand:      round(o.InventoryBand, 2),
		MinEdgeBpsBaseline: o.MinEdgeBpsBaseline,
	}
}

// clamp bounds x to [lo, hi]. When the range is inverted (hi < lo) the floor wins.
func clamp(x, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return max(lo, min(hi, x))
}
