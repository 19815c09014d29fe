package notionsync

import (
	"context"
	"fmt"

	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/records"
	"github.com/jomei/notionapi"
)

// ReviewPublisher writes each proposed override to the review database. A record whose
// review key already has a page updates that page and leaves its status alone.
type ReviewPublisher struct {
	svc        NotionService
	databaseID string
}

var _ records.Recorder = (*ReviewPublisher)(nil)

// NewReviewPublisher publishes into databaseID through svc.
func NewReviewPublisher(svc NotionService, databaseID string) *ReviewPublisher {
	return &ReviewPublisher{svc: svc, databaseID: databaseID}
}

func (p *ReviewPublisher) RecordExtraction(ctx context.Context, rec records.ExtractionRecord) error {
	return p.upsert(ctx, ExtractionReviewKey(rec), ExtractionToNotionProperties(rec))
}

func (p *ReviewPublisher) RecordAggregate(ctx context.Context, rec records.AggregateRecord) error {
	return p.upsert(ctx, AggregateReviewKey(rec), AggregateToNotionProperties(rec))
}

func (p *ReviewPublisher) upsert(ctx context.Context, key string, props notionapi.Properties) error {
	log := logger.FromContext(ctx)

	pageID, err := p.findPage(ctx, key)
	if err != nil {
		return err
	}

	if pageID == "" {
		page, err := p.svc.CreatePage(ctx, p.databaseID, props)
		if err != nil {
			return fmt.Errorf("publish review %s: %w", key, err)
		}
		log.Debug().Str("review_key", key).Str("page_id", string(page.ID)).Msg("created review page")
		return nil
	}

	if _, err := p.svc.UpdatePage(ctx, pageID, withoutStatus(props)); err != nil {
		return fmt.Errorf("update review %s: %w", key, err)
	}
	log.Debug().Str("review_key", key).Str("page_id", pageID).Msg("updated review page")
	return nil
}

// findPage returns the id of the page carrying key, or "" when there is none.
func (p *ReviewPublisher) findPage(ctx context.Context, key string) (string, error) {
	resp, err := p.svc.QueryDatabase(ctx, p.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: propReviewKey,
			RichText: &notionapi.TextFilterCondition{Equals: key},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", fmt.Errorf("find review %s: %w", key, err)
	}

	for _, page := range resp.Results {
		if extractReviewKey(page) == key {
			return string(page.ID), nil
		}
	}
	return "", nil
}
