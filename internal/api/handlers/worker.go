package handlers

import (
	"context"
	"errors"

	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/iQube-Protocol/moneypenny/internal/jobs"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
)

// ExtractJobHandler runs queued extraction jobs through svc. Invalid statements are not
// retried; provider outages are.
func ExtractJobHandler(svc *pipeline.Service) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.ExtractStatementJob) error {
		res, err := svc.Run(ctx, job.Input())
		if err != nil {
			if errors.Is(err, domain.ErrInvalidStatement) {
				return jobs.Permanent(err)
			}
			return err
		}
		job.Result = res
		return nil
	}
}
