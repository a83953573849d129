// Package reminder periodically posts digests of pull requests that wait
// for reviews.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/render"
	"github.com/threadrelay/threadrelay/internal/store"
)

const loggerName = "reminder"

const (
	DefInterval = time.Hour
	DefMinAge   = 4 * time.Hour
)

// SlackClient posts digest messages on behalf of one workspace token.
type SlackClient interface {
	PostBlocks(ctx context.Context, channelID, fallbackText string, blocks []slack.Block, attachments []slack.Attachment) (string, error)
}

type SlackClientFactory func(accessToken string) SlackClient

// Aggregator periodically selects open pull requests that wait for approvals
// longer than minAge and posts one digest message per organization and Slack
// workspace.
type Aggregator struct {
	threads      *store.ThreadRepo
	slackFactory SlackClientFactory
	logger       *zap.Logger

	interval time.Duration
	minAge   time.Duration
	clock    func() time.Time

	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

func New(db *store.DB, slackFactory SlackClientFactory, interval, minAge time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefInterval
	}
	if minAge <= 0 {
		minAge = DefMinAge
	}

	return &Aggregator{
		threads:      store.NewThreadRepo(db),
		slackFactory: slackFactory,
		logger:       zap.L().Named(loggerName),
		interval:     interval,
		minAge:       minAge,
		clock:        time.Now,
		shutdownChan: make(chan struct{}),
	}
}

// Start runs the periodic digest job until Stop is called.
func (a *Aggregator) Start() {
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		a.logger.Info(
			"reminder job started",
			logfields.Event("reminder_started"),
			zap.Duration("interval", a.interval),
			zap.Duration("min_age", a.minAge),
		)

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-a.shutdownChan:
				return
			case <-ticker.C:
				a.RunOnce(context.Background())
			}
		}
	}()
}

func (a *Aggregator) Stop() {
	close(a.shutdownChan)
	a.wg.Wait()
	a.logger.Debug("reminder job terminated")
}

// GroupKey identifies the digest destination of a pull request.
// Grouping is strict, pull requests of different organizations never share a
// digest even when they are posted to the same workspace.
type GroupKey struct {
	OrgID  int64
	TeamID string
}

// RunOnce selects the stale pull requests and posts one digest per group.
// Failures of one digest do not prevent the others from being sent.
func (a *Aggregator) RunOnce(ctx context.Context) {
	now := a.clock()

	stale, err := a.threads.ListStale(ctx, now.Add(-a.minAge))
	if err != nil {
		a.logger.Error(
			"listing stale pull requests failed",
			logfields.Event("reminder_query_failed"),
			zap.Error(err),
		)
		return
	}

	if len(stale) == 0 {
		return
	}

	keys, groups := groupStale(stale)

	for _, key := range keys {
		prs := groups[key]
		logger := a.logger.With(
			logfields.Organization(key.OrgID),
			logfields.SlackTeam(key.TeamID),
			zap.Int("pull_request_count", len(prs)),
		)

		dest := prs[0]
		fallback := fmt.Sprintf("%d pull requests are waiting for review", len(prs))

		clt := a.slackFactory(dest.AccessToken)
		_, err := clt.PostBlocks(
			ctx,
			dest.ChannelID,
			fallback,
			render.ReminderHeader(len(prs)),
			render.ReminderAttachments(prs, now),
		)
		if err != nil {
			logger.Error(
				"posting reminder digest failed",
				logfields.Event("slack_message_failed"),
				zap.Error(err),
			)
			continue
		}

		metrics.DigestSent()
		logger.Info("reminder digest posted", logfields.Event("reminder_posted"))
	}
}

// groupStale splits the stale pull requests by organization and workspace.
// The input ordering, oldest first, is kept within every group and for the
// group keys.
func groupStale(stale []*store.StalePullRequest) ([]GroupKey, map[GroupKey][]*store.StalePullRequest) {
	var keys []GroupKey
	groups := make(map[GroupKey][]*store.StalePullRequest, len(stale))

	for _, pr := range stale {
		key := GroupKey{OrgID: pr.OrgID, TeamID: pr.TeamID}
		if _, exists := groups[key]; !exists {
			keys = append(keys, key)
		}

		groups[key] = append(groups[key], pr)
	}

	return keys, groups
}
