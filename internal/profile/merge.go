package profile

// Period pairs a caller-supplied label (usually YYYY-MM) with that period's features.
type Period struct {
	Label    string     `json:"month"`
	Features FeatureSet `json:"features"`
}

// MergedSummary is the multi-period recommendation.
type MergedSummary struct {
	AvgSurplusDaily        float64        `json:"avg_surplus_daily"`
	SurplusVolatilityDaily float64        `json:"surplus_volatility_daily"`
	ClosingBalanceLast     float64        `json:"closing_balance_last"`
	ProposedOverrides      PolicyOverride `json:"proposed_overrides"`
	Months                 []string       `json:"months"`
	MonthCount             int            `json:"month_count"`
}

// MergePeriods averages surplus and volatility across periods with equal weight and takes
// the closing balance of the last period in input order. Periods are not re-sorted, so
// callers pass them oldest first. NaN features count as zero and infinities saturate.
func MergePeriods(periods []Period) MergedSummary {
	months := make([]string, 0, len(periods))
	for _, p := range periods {
		months = append(months, p.Label)
	}

	if len(periods) == 0 {
		return MergedSummary{
			ProposedOverrides: FloorOverrides(),
			Months:            months,
		}
	}

	avgs := make([]float64, len(periods))
	vols := make([]float64, len(periods))
	for i, p := range periods {
		avgs[i] = finite(p.Features.AvgDailySurplus)
		vols[i] = finite(p.Features.SurplusVolatility)
	}

	merged := FeatureSet{
		AvgDailySurplus:   mean(avgs),
		SurplusVolatility: mean(vols),
		ClosingBalance:    finite(periods[len(periods)-1].Features.ClosingBalance),
	}

	return MergedSummary{
		AvgSurplusDaily:        merged.AvgDailySurplus,
		SurplusVolatilityDaily: merged.SurplusVolatility,
		ClosingBalanceLast:     merged.ClosingBalance,
		ProposedOverrides:      ProposeOverrides(merged),
		Months:                 months,
		MonthCount:             len(periods),
	}
}

// Rounded returns the presentation form of the summary.
func (m MergedSummary) Rounded() MergedSummary {
	m.AvgSurplusDaily = round(m.AvgSurplusDaily, 2)
	m.SurplusVolatilityDaily = round(m.SurplusVolatilityDaily, 2)
	m.ClosingBalanceLast = round(m.ClosingBalanceLast, 2)
	m.ProposedOverrides = m.ProposedOverrides.Rounded()
	return m
}
