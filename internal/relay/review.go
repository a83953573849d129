package relay

import (
	"context"
	"fmt"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
)

// handleReviewEvent applies submitted and dismissed reviews.
// The approval count is tracked incrementally from events instead of being
// recounted via the API, one API round trip per review event is not worth
// the precision.
func (d *Dispatcher) handleReviewEvent(ctx context.Context, evCtx *eventContext, ev *github.PullRequestReviewEvent) {
	pr := ev.GetPullRequest()
	review := ev.GetReview()

	logger := evCtx.logger.With(
		logfields.PullRequest(pr.GetNumber()),
		zap.String("github.action", ev.GetAction()),
		zap.String("github.review_state", review.GetState()),
	)

	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	reviewer := review.GetUser().GetLogin()

	switch ev.GetAction() {
	case "submitted":
		switch review.GetState() {
		case "approved":
			th.ApprovalCount++
			if err := d.threads.Upsert(ctx, th); err != nil {
				logger.Error(
					"persisting thread state failed",
					logfields.Event("thread_persist_failed"),
					zap.Error(err),
				)
				return
			}

			d.postThreadNotice(ctx, logger, evCtx, th,
				fmt.Sprintf("*%s* approved this pull request", reviewer))
			d.rerender(ctx, logger, evCtx, th)

		case "changes_requested":
			d.postThreadNotice(ctx, logger, evCtx, th,
				fmt.Sprintf("*%s* requested changes", reviewer))

		case "commented":
			d.postThreadNotice(ctx, logger, evCtx, th,
				fmt.Sprintf("*%s* reviewed this pull request", reviewer))

		default:
			logger.Debug(
				"ignoring review, review state is unsupported",
				logfields.Event("event_dropped"),
			)
		}

	case "dismissed":
		if th.ApprovalCount > 0 {
			th.ApprovalCount--
		}

		if err := d.threads.Upsert(ctx, th); err != nil {
			logger.Error(
				"persisting thread state failed",
				logfields.Event("thread_persist_failed"),
				zap.Error(err),
			)
			return
		}

		d.rerender(ctx, logger, evCtx, th)

	default:
		logger.Debug(
			"ignoring review event, action is unsupported",
			logfields.Event("event_dropped"),
		)
	}
}
