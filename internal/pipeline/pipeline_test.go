package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/iQube-Protocol/moneypenny/internal/records"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockExtractor returns a canned statement or error.
type MockExtractor struct {
	Statement *domain.Statement
	Err       error
	LastHint  extraction.Hint
}

func (m *MockExtractor) Name() string { return "fake" }

func (m *MockExtractor) Extract(ctx context.Context, raw []byte, hint extraction.Hint) (*domain.Statement, error) {
	m.LastHint = hint
	if m.Err != nil {
		return nil, m.Err
	}
	stmt := *m.Statement
	return &stmt, nil
}

// MockArchive remembers uploads.
type MockArchive struct {
	Err     error
	Tenants []string
}

func (m *MockArchive) Put(ctx context.Context, tenantID, rawHash, filename string, data []byte) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Tenants = append(m.Tenants, tenantID)
	return "gs://bucket/raw/" + tenantID + "/" + rawHash + "-" + filename, nil
}

func (m *MockArchive) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

// MockRecorder captures records.
type MockRecorder struct {
	Err         error
	Extractions []records.ExtractionRecord
	Aggregates  []records.AggregateRecord
}

func (m *MockRecorder) RecordExtraction(ctx context.Context, rec records.ExtractionRecord) error {
	m.Extractions = append(m.Extractions, rec)
	return m.Err
}

func (m *MockRecorder) RecordAggregate(ctx context.Context, rec records.AggregateRecord) error {
	m.Aggregates = append(m.Aggregates, rec)
	return m.Err
}

func jan(d int) civil.Date { return civil.Date{Year: 2024, Month: time.January, Day: d} }

func exampleStatement() *domain.Statement {
	amt := decimal.NewFromInt
	return &domain.Statement{
		PeriodStart:    jan(1),
		PeriodEnd:      jan(31),
		OpeningBalance: amt(880),
		ClosingBalance: amt(1000),
		Transactions: []domain.Transaction{
			{Date: jan(1), Description: "Rent", Amount: amt(-50)},
			{Date: jan(1), Description: "Salary", Amount: amt(200)},
			{Date: jan(2), Description: "Groceries", Amount: amt(-30)},
		},
	}
}

var fixedNow = func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) }

func TestService_Run(t *testing.T) {
	ex := &MockExtractor{Statement: exampleStatement()}
	archive := &MockArchive{}
	rec := &MockRecorder{}
	svc := NewService(ex, WithArchive(archive), WithRecorder(rec), WithClock(fixedNow))

	res, err := svc.Run(context.Background(), Input{
		TenantID: "t1", Filename: "jan.pdf", Raw: []byte("pdf"), Monthly: true, MonthOffset: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, HashRaw([]byte("pdf")), res.RawHash)
	assert.Len(t, res.RawHash, 64)
	assert.Equal(t, "2024-01", res.Month)
	assert.Equal(t, "fake", res.Provider)
	assert.Equal(t, "gs://bucket/raw/t1/"+res.RawHash+"-jan.pdf", res.ArchiveURI)
	assert.Equal(t, extraction.Hint{Monthly: true, MonthOffset: 2}, ex.LastHint)

	assert.Equal(t, 60.0, res.Features.AvgDailySurplus)
	assert.Equal(t, 90.0, res.Features.SurplusVolatility)
	assert.Equal(t, 30.0, res.Features.MaxDrawdown)
	assert.Equal(t, 16.7, res.Features.CashBufferDays)
	assert.Equal(t, profile.PolicyOverride{
		MaxNotionalUSDDay: 25, DailyLossLimitBps: 40, InventoryBand: 2.4, MinEdgeBpsBaseline: 1,
	}, res.Overrides)

	assert.Equal(t, StatementSummary{
		Period: "2024-01-01 to 2024-01-31", TransactionCount: 3, OpeningBalance: 880, ClosingBalance: 1000,
	}, res.Summary)

	require.Len(t, rec.Extractions, 1)
	got := rec.Extractions[0]
	assert.Equal(t, res.RecordID, got.ID)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, res.Features, got.Features)
	assert.Equal(t, fixedNow(), got.CreatedAt)
}

func TestService_RunRequiresTenant(t *testing.T) {
	_, err := NewService(&MockExtractor{Statement: exampleStatement()}).Run(context.Background(), Input{Raw: []byte("x")})
	assert.Error(t, err)
}

func TestService_RunExtractionUnavailable(t *testing.T) {
	rec := &MockRecorder{}
	ex := &MockExtractor{Err: errors.Join(extraction.ErrExtractionUnavailable, errors.New("quota"))}

	_, err := NewService(ex, WithRecorder(rec)).Run(context.Background(), Input{TenantID: "t1", Raw: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrExtractionUnavailable)
	assert.Empty(t, rec.Extractions)
}

func TestService_RunRejectsInvalidStatement(t *testing.T) {
	bad := exampleStatement()
	bad.PeriodStart, bad.PeriodEnd = bad.PeriodEnd, bad.PeriodStart
	rec := &MockRecorder{}

	_, err := NewService(&MockExtractor{Statement: bad}, WithRecorder(rec)).
		Run(context.Background(), Input{TenantID: "t1", Raw: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStatement)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "period_end", verr.Errors[0].Field)
	assert.Empty(t, rec.Extractions)
}

func TestService_SinkFailuresDoNotFailRun(t *testing.T) {
	archive := &MockArchive{Err: errors.New("bucket missing")}
	rec := &MockRecorder{Err: errors.New("bigquery down")}

	res, err := NewService(&MockExtractor{Statement: exampleStatement()}, WithArchive(archive), WithRecorder(rec)).
		Run(context.Background(), Input{TenantID: "t1", Raw: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveURI)
	assert.Empty(t, res.RecordID)
	assert.Len(t, rec.Extractions, 1)
}

func TestService_NoSinksLeavesRecordIDEmpty(t *testing.T) {
	for name, r := range map[string]records.Recorder{
		"default":     nil,
		"empty multi": records.Multi{},
	} {
		t.Run(name, func(t *testing.T) {
			var opts []Option
			if r != nil {
				opts = append(opts, WithRecorder(r))
			}
			res, err := NewService(&MockExtractor{Statement: exampleStatement()}, opts...).
				Run(context.Background(), Input{TenantID: "t1", Raw: []byte("x")})
			require.NoError(t, err)
			assert.Empty(t, res.RecordID)
		})
	}

	rec := &MockRecorder{}
	res, err := NewService(&MockExtractor{Statement: exampleStatement()}, WithRecorder(records.Multi{rec})).
		Run(context.Background(), Input{TenantID: "t1", Raw: []byte("x")})
	require.NoError(t, err)
	require.Len(t, rec.Extractions, 1)
	assert.Equal(t, rec.Extractions[0].ID, res.RecordID)
}

func TestService_RunWithMockProvider(t *testing.T) {
	ex := extraction.NewMockExtractor(1).WithClock(func() time.Time {
		return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	})
	svc := NewService(ex)

	first, err := svc.Run(context.Background(), Input{TenantID: "t1", Raw: []byte("doc"), Monthly: true, MonthOffset: 1})
	require.NoError(t, err)
	again, err := svc.Run(context.Background(), Input{TenantID: "t1", Raw: []byte("doc"), Monthly: true, MonthOffset: 1})
	require.NoError(t, err)

	assert.Equal(t, "2025-02", first.Month)
	assert.Equal(t, first.Features, again.Features)
	assert.Equal(t, "mock", svc.Provider())
}

func TestService_Aggregate(t *testing.T) {
	rec := &MockRecorder{}
	svc := NewService(&MockExtractor{}, WithRecorder(rec), WithClock(fixedNow))

	summary := svc.Aggregate(context.Background(), "t1", []profile.Period{
		{Label: "2024-01", Features: profile.FeatureSet{AvgDailySurplus: 10.005, SurplusVolatility: 4, ClosingBalance: 500}},
		{Label: "2024-02", Features: profile.FeatureSet{AvgDailySurplus: 20, SurplusVolatility: 6, ClosingBalance: 700}},
	})

	assert.Equal(t, 2, summary.MonthCount)
	assert.Equal(t, []string{"2024-01", "2024-02"}, summary.Months)
	assert.Equal(t, 700.0, summary.ClosingBalanceLast)
	assert.Equal(t, 5.0, summary.SurplusVolatilityDaily)

	require.Len(t, rec.Aggregates, 1)
	assert.Equal(t, "t1", rec.Aggregates[0].TenantID)
	assert.Equal(t, summary, rec.Aggregates[0].Summary)
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	var ran []int
	step := func(i int, err error) PipelineStep {
		return stepFunc(func(ctx context.Context, s *PipelineState) error {
			ran = append(ran, i)
			return err
		})
	}

	err := NewPipeline(step(1, nil), step(2, errors.New("boom")), step(3, nil)).
		Execute(context.Background(), &PipelineState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline step 2")
	assert.Equal(t, []int{1, 2}, ran)
}

type stepFunc func(ctx context.Context, s *PipelineState) error

func (f stepFunc) Execute(ctx context.Context, s *PipelineState) error { return f(ctx, s) }
