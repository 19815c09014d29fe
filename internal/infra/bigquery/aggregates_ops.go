package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// InsertAggregateWithClient inserts a single AggregateRow.
func InsertAggregateWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *AggregateRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			aggregate_id, tenant_id, months, month_count,
			avg_surplus_daily, surplus_volatility_daily, closing_balance_last,
			max_notional_usd_day, daily_loss_limit_bps,
			inventory_band, min_edge_bps_baseline, created_ts
		)
		VALUES (
			@aggregate_id, @tenant_id, @months, @month_count,
			@avg_surplus_daily, @surplus_volatility_daily, @closing_balance_last,
			@max_notional_usd_day, @daily_loss_limit_bps,
			@inventory_band, @min_edge_bps_baseline, @created_ts
		)
	`, ds.Table(aggregatesTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "aggregate_id", Value: row.AggregateID},
		{Name: "tenant_id", Value: row.TenantID},
		{Name: "months", Value: row.Months},
		{Name: "month_count", Value: row.MonthCount},
		{Name: "avg_surplus_daily", Value: row.AvgSurplusDaily},
		{Name: "surplus_volatility_daily", Value: row.SurplusVolatilityDaily},
		{Name: "closing_balance_last", Value: row.ClosingBalanceLast},
		{Name: "max_notional_usd_day", Value: row.MaxNotionalUSDDay},
		{Name: "daily_loss_limit_bps", Value: row.DailyLossLimitBps},
		{Name: "inventory_band", Value: row.InventoryBand},
		{Name: "min_edge_bps_baseline", Value: row.MinEdgeBpsBaseline},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runDML(ctx, q, "InsertAggregate")
}
