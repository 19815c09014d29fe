// Package pipeline runs an uploaded statement through extraction, feature computation and
// override proposal, and records the outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/gcsuploader"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/metrics"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

// Input is one document to profile.
type Input struct {
	TenantID    string
	Filename    string
	Raw         []byte
	MIMEType    string
	Monthly     bool
	MonthOffset int
}

// Hint derives the extraction hint.
func (in Input) Hint() extraction.Hint {
	return extraction.Hint{Monthly: in.Monthly, MonthOffset: in.MonthOffset, MIMEType: in.MIMEType}
}

// StatementSummary describes the statement without exposing transactions.
type StatementSummary struct {
	Period           string  `json:"period"`
	TransactionCount int     `json:"transaction_count"`
	OpeningBalance   float64 `json:"opening_balance"`
	ClosingBalance   float64 `json:"closing_balance"`
}

// Result is the outward view of a run. Features and overrides are rounded.
type Result struct {
	TenantID   string                 `json:"tenant_id"`
	RawHash    string                 `json:"raw_hash"`
	Filename   string                 `json:"filename,omitempty"`
	ArchiveURI string                 `json:"archive_uri,omitempty"`
	Provider   string                 `json:"provider"`
	Month      string                 `json:"month"`
	Features   profile.FeatureSet     `json:"features"`
	Overrides  profile.PolicyOverride `json:"proposed_overrides"`
	Summary    StatementSummary       `json:"statement_summary"`
	RecordID   string                 `json:"record_id,omitempty"`
}

// Period returns the result as a merge input.
func (r *Result) Period() profile.Period {
	return profile.Period{Label: r.Month, Features: r.Features}
}

// Service owns the collaborators shared by every run.
type Service struct {
	extractor extraction.Extractor
	archive   gcsuploader.RawArchive
	recorder  records.Recorder
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithArchive stores raw documents before extraction.
func WithArchive(a gcsuploader.RawArchive) Option {
	return func(s *Service) { s.archive = a }
}

// WithRecorder sends extraction and aggregate records to r.
func WithRecorder(r records.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service around extractor.
func NewService(extractor extraction.Extractor, opts ...Option) *Service {
	s := &Service{
		extractor: extractor,
		archive:   gcsuploader.NopArchive{},
		recorder:  records.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider names the extraction provider in use.
func (s *Service) Provider() string {
	return s.extractor.Name()
}

func (s *Service) newPipeline() *Pipeline {
	return NewPipeline(
		&HashRawStep{},
		&ArchiveRawStep{Archive: s.archive},
		&ExtractStatementStep{Extractor: s.extractor},
		&ComputeFeaturesStep{},
		&ProposeOverridesStep{},
		&RecordStep{Recorder: s.recorder, Provider: s.extractor.Name(), Now: s.now},
	)
}

// Run profiles one document.
func (s *Service) Run(ctx context.Context, in Input) (*Result, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("Run: tenant id is required")
	}

	log := logger.FromContext(ctx).With().
		Str("tenant_id", in.TenantID).
		Str("provider", s.extractor.Name()).
		Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{Input: in}
	if err := s.newPipeline().Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("filename", in.Filename).Msg("statement profiling failed")
		return nil, err
	}

	stmt := state.Statement
	res := &Result{
		TenantID:   in.TenantID,
		RawHash:    state.RawHash,
		Filename:   in.Filename,
		ArchiveURI: state.ArchiveURI,
		Provider:   s.extractor.Name(),
		Month:      MonthLabel(stmt),
		Features:   state.Features.Rounded(),
		Overrides:  state.Overrides.Rounded(),
		Summary: StatementSummary{
			Period:           PeriodLabel(stmt),
			TransactionCount: len(stmt.Transactions),
			OpeningBalance:   stmt.OpeningBalance.Round(2).InexactFloat64(),
			ClosingBalance:   stmt.ClosingBalance.Round(2).InexactFloat64(),
		},
		RecordID: state.RecordID,
	}

	log.Info().
		Str("raw_hash", res.RawHash).
		Str("month", res.Month).
		Int("transactions", res.Summary.TransactionCount).
		Msg("statement profiled")

	return res, nil
}

// Aggregate merges per-period features for a tenant and records the outcome.
// Recorder failures are logged and do not affect the returned summary.
func (s *Service) Aggregate(ctx context.Context, tenantID string, periods []profile.Period) profile.MergedSummary {
	summary := profile.MergePeriods(periods).Rounded()
	metrics.Aggregations.Inc()
	if !records.Enabled(s.recorder) {
		return summary
	}

	rec := records.AggregateRecord{
		ID:        records.NewID(),
		TenantID:  tenantID,
		Summary:   summary,
		CreatedAt: s.now().UTC(),
	}
	if err := s.recorder.RecordAggregate(ctx, rec); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("recording aggregate failed")
	}
	return summary
}

// MonthLabel is the YYYY-MM of the statement's period start.
func MonthLabel(stmt *domain.Statement) string {
	return fmt.Sprintf("%04d-%02d", stmt.PeriodStart.Year, int(stmt.PeriodStart.Month))
}

// PeriodLabel renders "start to end" in ISO dates.
func PeriodLabel(stmt *domain.Statement) string {
	return stmt.PeriodStart.String() + " to " + stmt.PeriodEnd.String()
}
