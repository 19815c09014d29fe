package bigquery

import (
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

// ExtractionRow mirrors one row of the extractions table. Features and overrides are
// flattened into columns so they can be queried without JSON functions.
type ExtractionRow struct {
	ExtractionID string `bigquery:"extraction_id"` // REQUIRED
	TenantID     string `bigquery:"tenant_id"`     // REQUIRED
	RawHash      string `bigquery:"raw_hash"`      // REQUIRED
	Filename     string `bigquery:"filename"`      // NULLABLE
	ArchiveURI   string `bigquery:"archive_uri"`   // NULLABLE
	Provider     string `bigquery:"provider"`      // REQUIRED
	Month        string `bigquery:"month"`         // REQUIRED
	Period       string `bigquery:"period"`        // NULLABLE

	TransactionCount int64 `bigquery:"transaction_count"`

	AvgDailySurplus   float64 `bigquery:"avg_daily_surplus"`
	SurplusVolatility float64 `bigquery:"surplus_volatility"`
	ClosingBalance    float64 `bigquery:"closing_balance"`
	CashBufferDays    float64 `bigquery:"cash_buffer_days"`
	MaxDrawdown       float64 `bigquery:"max_drawdown"`
	ActiveDays        int64   `bigquery:"active_days"`

	MaxNotionalUSDDay  float64 `bigquery:"max_notional_usd_day"`
	DailyLossLimitBps  float64 `bigquery:"daily_loss_limit_bps"`
	InventoryBand      float64 `bigquery:"inventory_band"`
	MinEdgeBpsBaseline float64 `bigquery:"min_edge_bps_baseline"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// AggregateRow mirrors one row of the aggregates table.
type AggregateRow struct {
	AggregateID string   `bigquery:"aggregate_id"` // REQUIRED
	TenantID    string   `bigquery:"tenant_id"`    // REQUIRED
	Months      []string `bigquery:"months"`
	MonthCount  int64    `bigquery:"month_count"`

	AvgSurplusDaily        float64 `bigquery:"avg_surplus_daily"`
	SurplusVolatilityDaily float64 `bigquery:"surplus_volatility_daily"`
	ClosingBalanceLast     float64 `bigquery:"closing_balance_last"`

	MaxNotionalUSDDay  float64 `bigquery:"max_notional_usd_day"`
	DailyLossLimitBps  float64 `bigquery:"daily_loss_limit_bps"`
	InventoryBand      float64 `bigquery:"inventory_band"`
	MinEdgeBpsBaseline float64 `bigquery:"min_edge_bps_baseline"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// NewExtractionRow flattens an extraction record.
func NewExtractionRow(rec records.ExtractionRecord) *ExtractionRow {
	return &ExtractionRow{
		ExtractionID:       rec.ID,
		TenantID:           rec.TenantID,
		RawHash:            rec.RawHash,
		Filename:           rec.Filename,
		ArchiveURI:         rec.ArchiveURI,
		Provider:           rec.Provider,
		Month:              rec.Month,
		Period:             rec.Period,
		TransactionCount:   int64(rec.TransactionCount),
		AvgDailySurplus:    rec.Features.AvgDailySurplus,
		SurplusVolatility:  rec.Features.SurplusVolatility,
		ClosingBalance:     rec.Features.ClosingBalance,
		CashBufferDays:     rec.Features.CashBufferDays,
		MaxDrawdown:        rec.Features.MaxDrawdown,
		ActiveDays:         int64(rec.Features.ActiveDays),
		MaxNotionalUSDDay:  rec.Overrides.MaxNotionalUSDDay,
		DailyLossLimitBps:  rec.Overrides.DailyLossLimitBps,
		InventoryBand:      rec.Overrides.InventoryBand,
		MinEdgeBpsBaseline: rec.Overrides.MinEdgeBpsBaseline,
		CreatedTS:          rec.CreatedAt,
	}
}

// Record rebuilds the extraction record stored in the row.
func (r *ExtractionRow) Record() records.ExtractionRecord {
	return records.ExtractionRecord{
		ID:               r.ExtractionID,
		TenantID:         r.TenantID,
		RawHash:          r.RawHash,
		Filename:         r.Filename,
		ArchiveURI:       r.ArchiveURI,
		Provider:         r.Provider,
		Month:            r.Month,
		Period:           r.Period,
		TransactionCount: int(r.TransactionCount),
		Features: profile.FeatureSet{
			AvgDailySurplus:   r.AvgDailySurplus,
			SurplusVolatility: r.SurplusVolatility,
			ClosingBalance:    r.ClosingBalance,
			CashBufferDays:    r.CashBufferDays,
			MaxDrawdown:       r.MaxDrawdown,
			ActiveDays:        int(r.ActiveDays),
		},
		Overrides: profile.PolicyOverride{
			MaxNotionalUSDDay:  r.MaxNotionalUSDDay,
			DailyLossLimitBps:  r.DailyLossLimitBps,
			InventoryBand:      r.InventoryBand,
			MinEdgeBpsBaseline: r.MinEdgeBpsBaseline,
		},
		CreatedAt: r.CreatedTS,
	}
}

// NewAggregateRow flattens an aggregate record.
func NewAggregateRow(rec records.AggregateRecord) *AggregateRow {
	s := rec.Summary
	months := s.Months
	if months == nil {
		months = []string{}
	}
	return &AggregateRow{
		AggregateID:            rec.ID,
		TenantID:               rec.TenantID,
		Months:                 months,
		MonthCount:             int64(s.MonthCount),
		AvgSurplusDaily:        s.AvgSurplusDaily,
		SurplusVolatilityDaily: s.SurplusVolatilityDaily,
		ClosingBalanceLast:     s.ClosingBalanceLast,
		MaxNotionalUSDDay:      s.ProposedOverrides.MaxNotionalUSDDay,
		DailyLossLimitBps:      s.ProposedOverrides.DailyLossLimitBps,
		InventoryBand:          s.ProposedOverrides.InventoryBand,
		MinEdgeBpsBaseline:     s.ProposedOverrides.MinEdgeBpsBaseline,
		CreatedTS:              rec.CreatedAt,
	}
}
