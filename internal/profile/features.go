package profile

import (
	"math"

	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/shopspring/decimal"
)

// FeatureSet summarises the cash-flow behaviour of one statement period.
type FeatureSet struct {
	AvgDailySurplus   float64 `json:"avg_daily_surplus"`
	SurplusVolatility float64 `json:"surplus_volatility"`
	ClosingBalance    float64 `json:"closing_balance"`
	CashBufferDays    float64 `json:"cash_buffer_days"`
	MaxDrawdown       float64 `json:"max_drawdown"`

	// ActiveDays is the number of distinct dates that carried a transaction.
	ActiveDays int `json:"active_days,omitempty"`
}

// FeaturesFromStatement runs aggregation and extraction for a validated statement.
func FeaturesFromStatement(s *domain.Statement) FeatureSet {
	return ExtractFeatures(DailyFlows(s.Transactions), s.ClosingBalance)
}

// ExtractFeatures computes the feature set for a daily flow sequence in date order.
// An empty sequence yields zeros for every derived field; the closing balance is kept.
// Every field is finite: values beyond float64 range saturate at ±math.MaxFloat64.
func ExtractFeatures(flows []DailyFlow, closingBalance decimal.Decimal) FeatureSet {
	closing := toFloat(closingBalance)
	if len(flows) == 0 {
		return FeatureSet{ClosingBalance: closing}
	}

	vals := make([]float64, len(flows))
	for i, f := range flows {
		vals[i] = toFloat(f.Net)
	}

	avg := mean(vals)

	var cashBuffer float64
	if avg != 0 {
		cashBuffer = finite(closing / math.Abs(avg))
	}

	return FeatureSet{
		AvgDailySurplus:   avg,
		SurplusVolatility: populationStdDev(vals),
		ClosingBalance:    closing,
		CashBufferDays:    cashBuffer,
		MaxDrawdown:       maxDrawdown(flows),
		ActiveDays:        len(vals),
	}
}

// Rounded returns the presentation form: cents for amounts, tenths for day counts.
func (f FeatureSet) Rounded() FeatureSet {
	return FeatureSet{
		AvgDailySurplus:   round(f.AvgDailySurplus, 2),
		SurplusVolatility: round(f.SurplusVolatility, 2),
		ClosingBalance:    round(f.ClosingBalance, 2),
		CashBufferDays:    round(f.CashBufferDays, 1),
		MaxDrawdown:       round(f.MaxDrawdown, 2),
		ActiveDays:        f.ActiveDays,
	}
}

// IsFinite reports whether every field is a finite number. Features decoded from JSON
// always are; this guards values built in code.
func (f FeatureSet) IsFinite() bool {
	for _, x := range []float64{f.AvgDailySurplus, f.SurplusVolatility, f.ClosingBalance, f.CashBufferDays, f.MaxDrawdown} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// mean is a running average. Each step is a convex combination of finite values, so it
// cannot overflow the way a plain sum can.
func mean(vals []float64) float64 {
	var avg float64
	for i, v := range vals {
		k := float64(i + 1)
		avg = avg*((k-1)/k) + v/k
	}
	return avg
}

// populationStdDev divides by n; a single observation has no dispersion. Values are scaled
// by the largest magnitude first so squared deviations stay in range.
func populationStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var scale float64
	for _, v := range vals {
		scale = max(scale, math.Abs(v))
	}
	if scale == 0 {
		return 0
	}

	scaled := make([]float64, len(vals))
	for i, v := range vals {
		scaled[i] = v / scale
	}
	avg := mean(scaled)

	var sq float64
	for _, u := range scaled {
		d := u - avg
		sq += d * d
	}
	return finite(math.Sqrt(sq/float64(len(vals))) * scale)
}

// maxDrawdown walks the cumulative net flow and returns the largest fall from a running
// peak. The peak starts at zero, so an opening deficit counts as drawdown. Sums are exact.
func maxDrawdown(flows []DailyFlow) float64 {
	cumulative, peak, worst := decimal.Zero, decimal.Zero, decimal.Zero
	for _, f := range flows {
		cumulative = cumulative.Add(f.Net)
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		if dd := peak.Sub(cumulative); dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return toFloat(worst)
}

func toFloat(d decimal.Decimal) float64 {
	return finite(d.InexactFloat64())
}

// finite maps NaN to zero and saturates infinities.
func finite(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	}
	return x
}

func round(x float64, places int32) float64 {
	return decimal.NewFromFloat(finite(x)).Round(places).InexactFloat64()
}
