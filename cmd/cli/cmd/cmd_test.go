package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleStatement = `{
	"period_start": "2024-01-01",
	"period_end": "2024-01-31",
	"opening_balance": 880,
	"closing_balance": 1000,
	"transactions": [
		{"date": "2024-01-01", "description": "Coffee", "amount": -50},
		{"date": "2024-01-01", "description": "Salary", "amount": 200},
		{"date": "2024-01-02", "description": "Groceries", "amount": -30}
	]
}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFeaturesCommand(t *testing.T) {
	out, err := run(t, "", "features", "-f", writeTemp(t, "statement.json", exampleStatement))
	require.NoError(t, err)

	var got featuresOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2024-01", got.Month)
	assert.Equal(t, "2024-01-01 to 2024-01-31", got.Period)
	assert.Equal(t, 3, got.TransactionCount)
	assert.Equal(t, 60.0, got.Features.AvgDailySurplus)
	assert.Equal(t, 90.0, got.Features.SurplusVolatility)
	assert.Equal(t, 30.0, got.Features.MaxDrawdown)
	assert.Equal(t, 16.7, got.Features.CashBufferDays)
	assert.Equal(t, 25.0, got.ProposedOverrides.MaxNotionalUSDDay)
	assert.Equal(t, 40.0, got.ProposedOverrides.DailyLossLimitBps)
	assert.Equal(t, 2.4, got.ProposedOverrides.InventoryBand)
	assert.Equal(t, 1.0, got.ProposedOverrides.MinEdgeBpsBaseline)
}

func TestFeaturesCommand_Stdin(t *testing.T) {
	out, err := run(t, exampleStatement, "features", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"avg_daily_surplus": 60`)
}

func TestFeaturesCommand_InvalidStatement(t *testing.T) {
	_, err := run(t, `{"period_start":"2024-01-01"}`, "features", "-f", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing_balance")
}

func TestFeaturesCommand_RequiresFile(t *testing.T) {
	_, err := run(t, "", "features")
	require.Error(t, err)
}

func TestAggregateCommand(t *testing.T) {
	months := `[
		{"month": "2024-01", "features": {"avg_daily_surplus": 40, "surplus_volatility": 10, "closing_balance": 500}},
		{"month": "2024-02", "features": {"avg_daily_surplus": 80, "surplus_volatility": 20, "closing_balance": 900}}
	]`
	out, err := run(t, "", "aggregate", "-f", writeTemp(t, "months.json", months))
	require.NoError(t, err)

	var got struct {
		AvgSurplusDaily        float64  `json:"avg_surplus_daily"`
		SurplusVolatilityDaily float64  `json:"surplus_volatility_daily"`
		ClosingBalanceLast     float64  `json:"closing_balance_last"`
		Months                 []string `json:"months"`
		MonthCount             int      `json:"month_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 60.0, got.AvgSurplusDaily)
	assert.Equal(t, 15.0, got.SurplusVolatilityDaily)
	assert.Equal(t, 900.0, got.ClosingBalanceLast)
	assert.Equal(t, []string{"2024-01", "2024-02"}, got.Months)
	assert.Equal(t, 2, got.MonthCount)
}

func TestAggregateCommand_Empty(t *testing.T) {
	out, err := run(t, "[]", "aggregate", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_notional_usd_day": 25`)
	assert.Contains(t, out, `"daily_loss_limit_bps": 8`)
}

func TestExtractCommand_Mock(t *testing.T) {
	t.Setenv("EXTRACTION_PROVIDER", "mock")
	out, err := run(t, "statement bytes", "extract", "-f", "-", "--provider", "mock", "--tenant", "t-9", "--month-offset", "0")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "t-9", got["tenant_id"])
	assert.Equal(t, "mock", got["provider"])
	assert.Contains(t, got, "proposed_overrides")
}

func TestExtractCommand_UnknownProvider(t *testing.T) {
	_, err := run(t, "x", "extract", "-f", "-", "--provider", "carrier-pigeon")
	require.Error(t, err)
}

func TestMigrateCommand_RequiresProject(t *testing.T) {
	t.Setenv("BQ_PROJECT_ID", "")
	_, err := run(t, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}
