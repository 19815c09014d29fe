package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	extractionsTable      = "extractions"
	aggregatesTable       = "aggregates"
	schemaMigrationsTable = "schema_migrations"
)

// Dataset addresses the tables of one project/dataset pair.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// Table returns the backtick-quoted fully qualified table name.
func (d Dataset) Table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.DatasetID, name)
}

// runDML executes a statement and waits for it. op prefixes every error.
func runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}

	return nil
}
