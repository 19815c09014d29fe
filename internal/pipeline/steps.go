package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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

// PipelineStep is one stage of statement profiling.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState is shared by every step of a single run.
type PipelineState struct {
	Input Input

	RawHash    string
	ArchiveURI string
	Statement  *domain.Statement
	Features   profile.FeatureSet
	Overrides  profile.PolicyOverride
	RecordID   string
}

// HashRawStep fingerprints the document. The hash is the only reference to raw bytes
// that leaves the service.
type HashRawStep struct{}

func (s *HashRawStep) Execute(ctx context.Context, state *PipelineState) error {
	state.RawHash = HashRaw(state.Input.Raw)
	return nil
}

// HashRaw returns the hex sha256 of raw.
func HashRaw(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ArchiveRawStep stores the document in the raw archive. Archive failures are logged and
// do not stop the run.
type ArchiveRawStep struct {
	Archive gcsuploader.RawArchive
}

func (s *ArchiveRawStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archive == nil {
		return nil
	}
	uri, err := s.Archive.Put(ctx, state.Input.TenantID, state.RawHash, state.Input.Filename, state.Input.Raw)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("raw_hash", state.RawHash).Msg("raw archive failed")
		return nil
	}
	state.ArchiveURI = uri
	return nil
}

// ExtractStatementStep turns the document into a validated statement.
type ExtractStatementStep struct {
	Extractor extraction.Extractor
}

func (s *ExtractStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	provider := s.Extractor.Name()

	stmt, err := s.Extractor.Extract(ctx, state.Input.Raw, state.Input.Hint())
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues(provider).Inc()
		return err
	}
	if err := stmt.Validate(); err != nil {
		metrics.ExtractionFailures.WithLabelValues(provider).Inc()
		return fmt.Errorf("%s returned an invalid statement: %w", provider, err)
	}

	metrics.StatementsExtracted.WithLabelValues(provider).Inc()
	state.Statement = stmt
	return nil
}

// ComputeFeaturesStep aggregates daily flows and derives the feature set.
type ComputeFeaturesStep struct{}

func (s *ComputeFeaturesStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Features = profile.FeaturesFromStatement(state.Statement)
	metrics.ActiveDays.Observe(float64(state.Features.ActiveDays))
	return nil
}

// ProposeOverridesStep maps the unrounded features onto policy overrides.
type ProposeOverridesStep struct{}

func (s *ProposeOverridesStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Overrides = profile.ProposeOverrides(state.Features)
	return nil
}

// RecordStep hands the rounded outcome to the recorder. Recorder failures are logged;
// the caller still gets its result.
type RecordStep struct {
	Recorder records.Recorder
	Provider string
	Now      func() time.Time
}

func (s *RecordStep) Execute(ctx context.Context, state *PipelineState) error {
	if !records.Enabled(s.Recorder) {
		return nil
	}

	rec := records.ExtractionRecord{
		ID:               records.NewID(),
		TenantID:         state.Input.TenantID,
		RawHash:          state.RawHash,
		Filename:         state.Input.Filename,
		ArchiveURI:       state.ArchiveURI,
		Provider:         s.Provider,
		Month:            MonthLabel(state.Statement),
		Period:           PeriodLabel(state.Statement),
		TransactionCount: len(state.Statement.Transactions),
		Features:         state.Features.Rounded(),
		Overrides:        state.Overrides.Rounded(),
		CreatedAt:        s.Now().UTC(),
	}

	if err := s.Recorder.RecordExtraction(ctx, rec); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("record_id", rec.ID).Msg("recording extraction failed")
		return nil
	}
	state.RecordID = rec.ID
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%T): %w", i+1, step, err)
		}
	}
	return nil
}
