package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// InsertExtractionWithClient inserts a single ExtractionRow. Uses DML INSERT so rows are
// immediately visible to the history query.
func InsertExtractionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *ExtractionRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			extraction_id, tenant_id, raw_hash, filename, archive_uri,
			provider, month, period, transaction_count,
			avg_daily_surplus, surplus_volatility, closing_balance,
			cash_buffer_days, max_drawdown, active_days,
			max_notional_usd_day, daily_loss_limit_bps,
			inventory_band, min_edge_bps_baseline, created_ts
		)
		VALUES (
			@extraction_id, @tenant_id, @raw_hash, @filename, @archive_uri,
			@provider, @month, @period, @transaction_count,
			@avg_daily_surplus, @surplus_volatility, @closing_balance,
			@cash_buffer_days, @max_drawdown, @active_days,
			@max_notional_usd_day, @daily_loss_limit_bps,
			@inventory_band, @min_edge_bps_baseline, @created_ts
		)
	`, ds.Table(extractionsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "extraction_id", Value: row.ExtractionID},
		{Name: "tenant_id", Value: row.TenantID},
		{Name: "raw_hash", Value: row.RawHash},
		{Name: "filename", Value: row.Filename},
		{Name: "archive_uri", Value: row.ArchiveURI},
		{Name: "provider", Value: row.Provider},
		{Name: "month", Value: row.Month},
		{Name: "period", Value: row.Period},
		{Name: "transaction_count", Value: row.TransactionCount},
		{Name: "avg_daily_surplus", Value: row.AvgDailySurplus},
		{Name: "surplus_volatility", Value: row.SurplusVolatility},
		{Name: "closing_balance", Value: row.ClosingBalance},
		{Name: "cash_buffer_days", Value: row.CashBufferDays},
		{Name: "max_drawdown", Value: row.MaxDrawdown},
		{Name: "active_days", Value: row.ActiveDays},
		{Name: "max_notional_usd_day", Value: row.MaxNotionalUSDDay},
		{Name: "daily_loss_limit_bps", Value: row.DailyLossLimitBps},
		{Name: "inventory_band", Value: row.InventoryBand},
		{Name: "min_edge_bps_baseline", Value: row.MinEdgeBpsBaseline},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runDML(ctx, q, "InsertExtraction")
}

// ListExtractionsByTenantWithClient returns a tenant's extractions, newest first.
// limit is clamped to (0, maxHistoryLimit]; zero or negative selects the default.
func ListExtractionsByTenantWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, tenantID string, limit int) ([]*ExtractionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			extraction_id, tenant_id, raw_hash, filename, archive_uri,
			provider, month, period, transaction_count,
			avg_daily_surplus, surplus_volatility, closing_balance,
			cash_buffer_days, max_drawdown, active_days,
			max_notional_usd_day, daily_loss_limit_bps,
			inventory_band, min_edge_bps_baseline, created_ts
		FROM %s
		WHERE tenant_id = @tenant_id
		ORDER BY created_ts DESC
		LIMIT @limit
	`, ds.Table(extractionsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "tenant_id", Value: tenantID},
		{Name: "limit", Value: historyLimit(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListExtractionsByTenant: reading query: %w", err)
	}

	var rows []*ExtractionRow
	for {
		var row ExtractionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListExtractionsByTenant: iterating: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

func historyLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}
