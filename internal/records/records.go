// Package records defines what the service remembers about each extraction and aggregation,
// and the sinks that receive those records.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
)

// Consent describes the terms under which features were derived. It is returned to the
// caller with every extraction.
type Consent struct {
	Purpose   string `json:"purpose"`
	Scope     string `json:"scope"`
	Retention string `json:"retention"`
	Revoke    string `json:"revoke"`
}

// DefaultConsent is the feature-level consent that the extraction endpoints operate under.
func DefaultConsent() Consent {
	return Consent{
		Purpose:   "Qc-suitability-v1",
		Scope:     "feature-level",
		Retention: "12m",
		Revoke:    "destroy tokenQube key",
	}
}

// ExtractionRecord captures one processed statement. It carries no transactions.
type ExtractionRecord struct {
	ID               string                 `json:"id"`
	TenantID         string                 `json:"tenant_id"`
	RawHash          string                 `json:"raw_hash"`
	Filename         string                 `json:"filename,omitempty"`
	ArchiveURI       string                 `json:"archive_uri,omitempty"`
	Provider         string                 `json:"provider"`
	Month            string                 `json:"month"`
	Period           string                 `json:"period"`
	TransactionCount int                    `json:"transaction_count"`
	Features         profile.FeatureSet     `json:"features"`
	Overrides        profile.PolicyOverride `json:"proposed_overrides"`
	CreatedAt        time.Time              `json:"created_at"`
}

// AggregateRecord captures one multi-period merge.
type AggregateRecord struct {
	ID        string                `json:"id"`
	TenantID  string                `json:"tenant_id"`
	Summary   profile.MergedSummary `json:"aggregate"`
	CreatedAt time.Time             `json:"created_at"`
}

// Recorder receives records after the response has been computed.
type Recorder interface {
	RecordExtraction(ctx context.Context, rec ExtractionRecord) error
	RecordAggregate(ctx context.Context, rec AggregateRecord) error
}

// HistoryReader lists previously recorded extractions for a tenant, newest first.
type HistoryReader interface {
	ListExtractions(ctx context.Context, tenantID string, limit int) ([]ExtractionRecord, error)
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// Multi fans a record out to every recorder. All recorders are called; their errors are joined.
type Multi []Recorder

func (m Multi) RecordExtraction(ctx context.Context, rec ExtractionRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordExtraction(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RecordAggregate(ctx context.Context, rec AggregateRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordAggregate(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every record.
type Nop struct{}

func (Nop) RecordExtraction(context.Context, ExtractionRecord) error { return nil }
func (Nop) RecordAggregate(context.Context, AggregateRecord) error   { return nil }

// Enabled reports whether r can store anything. Nil, Nop and an empty Multi drop every record.
func Enabled(r Recorder) bool {
	switch v := r.(type) {
	case nil:
		return false
	case Nop, *Nop:
		return false
	case Multi:
		for _, inner := range v {
			if Enabled(inner) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
