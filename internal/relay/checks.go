package relay

import (
	"context"
	"fmt"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/store"
)

func (d *Dispatcher) handleCheckRunEvent(ctx context.Context, evCtx *eventContext, ev *github.CheckRunEvent) {
	if ev.GetAction() != "completed" {
		return
	}

	run := ev.GetCheckRun()
	d.summarizeChecks(ctx, evCtx, run.GetHeadSHA(), run.PullRequests)
}

func (d *Dispatcher) handleCheckSuiteEvent(ctx context.Context, evCtx *eventContext, ev *github.CheckSuiteEvent) {
	if ev.GetAction() != "completed" {
		return
	}

	suite := ev.GetCheckSuite()
	d.summarizeChecks(ctx, evCtx, suite.GetHeadSHA(), suite.PullRequests)
}

// summarizeChecks posts a one-line summary into the thread of every PR the
// completed check belongs to, once no check run of the commit is pending.
// Events without associated pull requests, which happens for checks on
// branches without a PR, are dropped.
func (d *Dispatcher) summarizeChecks(ctx context.Context, evCtx *eventContext, headSHA string, prs []*github.PullRequest) {
	logger := evCtx.logger.With(logfields.Commit(headSHA))

	if len(prs) == 0 {
		logger.Debug(
			"ignoring check event, commit belongs to no pull request",
			logfields.Event("event_dropped"),
		)
		return
	}

	result, err := d.gh.ListCheckRuns(ctx, evCtx.repo.Owner, evCtx.repo.Name, headSHA)
	if err != nil {
		logger.Error(
			"listing check runs failed",
			logfields.Event("check_runs_lookup_failed"),
			zap.Error(err),
		)
		return
	}

	summary := AggregateCheckRuns(result)
	if !summary.Done() {
		logger.Debug(
			"skipping check summary, check runs are still pending",
			logfields.Event("check_summary_deferred"),
			zap.Int("github.pending_check_runs", summary.Pending),
		)
		return
	}

	text := checkSummaryText(summary)

	for _, pr := range prs {
		logger := logger.With(logfields.PullRequest(pr.GetNumber()))

		th, err := d.threads.Get(ctx, evCtx.repo.ID, pr.GetNumber())
		if err != nil {
			logger.Error(
				"reading thread state failed",
				logfields.Event("thread_read_failed"),
				zap.Error(err),
			)
			continue
		}

		if th == nil || th.ThreadTS == "" || th.Status != store.ThreadStatusOpen {
			continue
		}

		d.postThreadNotice(ctx, logger, evCtx, th, text)
	}
}

func checkSummaryText(summary *CheckSummary) string {
	if summary.Failure == 0 {
		return fmt.Sprintf("All %d checks passed :white_check_mark:", summary.Total)
	}

	return fmt.Sprintf("%d of %d checks failed :x:", summary.Failure, summary.Total)
}
