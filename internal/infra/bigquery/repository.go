package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/iQube-Protocol/moneypenny/internal/config"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

// ProfileRepository persists extraction and aggregate records and serves tenant history.
// It holds one shared client for the life of the process.
type ProfileRepository struct {
	client *bigquery.Client
	ds     Dataset
}

var (
	_ records.Recorder      = (*ProfileRepository)(nil)
	_ records.HistoryReader = (*ProfileRepository)(nil)
)

// NewProfileRepository opens a BigQuery client for cfg.ProjectID.
func NewProfileRepository(ctx context.Context, cfg config.BigQuery) (*ProfileRepository, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("NewProfileRepository: project id is required")
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewProfileRepository: creating client: %w", err)
	}
	return &ProfileRepository{
		client: client,
		ds:     Dataset{ProjectID: cfg.ProjectID, DatasetID: cfg.Dataset},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *ProfileRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Migrate brings the dataset schema up to date.
func (r *ProfileRepository) Migrate(ctx context.Context, appliedBy string) (int, error) {
	return MigrateWithClient(ctx, r.client, r.ds, appliedBy)
}

func (r *ProfileRepository) RecordExtraction(ctx context.Context, rec records.ExtractionRecord) error {
	return InsertExtractionWithClient(ctx, r.client, r.ds, NewExtractionRow(rec))
}

func (r *ProfileRepository) RecordAggregate(ctx context.Context, rec records.AggregateRecord) error {
	return InsertAggregateWithClient(ctx, r.client, r.ds, NewAggregateRow(rec))
}

func (r *ProfileRepository) ListExtractions(ctx context.Context, tenantID string, limit int) ([]records.ExtractionRecord, error) {
	rows, err := ListExtractionsByTenantWithClient(ctx, r.client, r.ds, tenantID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]records.ExtractionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Record())
	}
	return out, nil
}
