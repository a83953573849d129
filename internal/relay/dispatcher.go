// Package relay processes github webhook events and mirrors pull request
// state into Slack threads.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	githubprov "github.com/threadrelay/threadrelay/internal/provider/github"

	"github.com/threadrelay/threadrelay/internal/billing"
	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/store"
)

const DefEventChannelBufferSize = 512

const loggerName = "dispatcher"

// Dispatcher receives github webhook events from the event channel, resolves
// the repository registration and Slack destination and applies the event to
// the pull request's Slack thread.
// Events are processed in go-routines. Two concurrent deliveries for the
// same pull request can read stale thread state, webhook deliveries are rare
// enough per PR that this is accepted.
type Dispatcher struct {
	ch     chan *githubprov.Event
	logger *zap.Logger

	threads      *store.ThreadRepo
	registry     *store.RegistryRepo
	users        *store.UserRepo
	billing      *store.BillingRepo
	dmLinks      *store.DMLinkRepo
	participants *store.ParticipantRepo
	approvals    *ApprovalsCache

	gh           GithubClient
	slackFactory SlackClientFactory

	clock func() time.Time

	wg           sync.WaitGroup
	eventDeferFn func()
}

// WithEventRoutineDeferFunc sets a function that is deferred in every
// go-routine that processes an event. It can be used to install a panic
// handler.
func WithEventRoutineDeferFunc(fn func()) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.eventDeferFn = fn
	}
}

func NewDispatcher(db *store.DB, gh GithubClient, slackFactory SlackClientFactory, opts ...func(*Dispatcher)) *Dispatcher {
	d := Dispatcher{
		ch:           make(chan *githubprov.Event, DefEventChannelBufferSize),
		threads:      store.NewThreadRepo(db),
		registry:     store.NewRegistryRepo(db),
		users:        store.NewUserRepo(db),
		billing:      store.NewBillingRepo(db),
		dmLinks:      store.NewDMLinkRepo(db),
		participants: store.NewParticipantRepo(db),
		approvals:    NewApprovalsCache(store.NewBranchApprovalRepo(db), gh),
		gh:           gh,
		slackFactory: slackFactory,
		clock:        time.Now,
	}

	for _, opt := range opts {
		opt(&d)
	}

	if d.logger == nil {
		d.logger = zap.L().Named(loggerName)
	}

	return &d
}

// C returns the event channel.
// Events sent to this channel will be processed.
func (d *Dispatcher) C() chan<- *githubprov.Event {
	return d.ch
}

func (d *Dispatcher) Start() {
	d.logger.Info("ready to process events", logfields.Event("dispatcher_started"))

	for ev := range d.ch {
		ev := ev

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if d.eventDeferFn != nil {
				defer d.eventDeferFn()
			}

			d.Process(context.Background(), ev)
		}()
	}
}

// Stop closes the event channel and waits until all queued events were
// processed.
func (d *Dispatcher) Stop() {
	d.logger.Debug("terminating, waiting for events to be processed")
	close(d.ch)
	d.wg.Wait()
	d.logger.Debug("terminated")
}

// eventContext carries the resolved registration state of one event through
// the handlers.
type eventContext struct {
	logger *zap.Logger
	kind   EventKind
	repo   *store.Repository
	org    *store.Organization
	dest   *store.Destination
	slack  SlackClient
}

// Process applies a single webhook event.
// Events for unknown or disabled repositories and events of unsupported
// types are dropped. Failures are logged and terminal for the delivery,
// nothing is retried.
func (d *Dispatcher) Process(ctx context.Context, ev *githubprov.Event) {
	logger := d.logger.With(ev.LogFields...)

	kind := ParseEventKind(ev.Type)
	if kind == EventKindUnsupported {
		logger.Debug(
			"ignoring event, event type is unsupported",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonUnsupported)
		return
	}

	ghRepo := eventRepository(ev.Event)
	if ghRepo == nil {
		logger.Debug(
			"ignoring event, event carries no repository",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonUnsupported)
		return
	}

	orgID := ghRepo.GetOwner().GetID()
	repoID := ghRepo.GetID()

	logger = logger.With(
		logfields.Organization(orgID),
		logfields.RepositoryID(repoID),
		logfields.Repository(ghRepo.GetName()),
	)

	evCtx, err := d.resolveEvent(ctx, logger, kind, orgID, repoID)
	if err != nil {
		logger.Error(
			"resolving event registration failed",
			logfields.Event("event_resolution_failed"),
			zap.Error(err),
		)
		return
	}

	if evCtx == nil {
		return
	}

	cont, err := d.checkBilling(ctx, evCtx)
	if err != nil {
		evCtx.logger.Error(
			"evaluating billing state failed, event is processed anyway",
			logfields.Event("billing_evaluation_failed"),
			zap.Error(err),
		)
	} else if !cont {
		evCtx.logger.Debug(
			"ignoring event, organization service is paused",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonBilling)
		return
	}

	switch event := ev.Event.(type) {
	case *github.PullRequestEvent:
		d.handlePullRequestEvent(ctx, evCtx, event)
	case *github.PullRequestReviewEvent:
		d.handleReviewEvent(ctx, evCtx, event)
	case *github.PullRequestReviewCommentEvent:
		d.handleReviewCommentEvent(ctx, evCtx, event)
	case *github.IssueCommentEvent:
		d.handleIssueCommentEvent(ctx, evCtx, event)
	case *github.CheckRunEvent:
		d.handleCheckRunEvent(ctx, evCtx, event)
	case *github.CheckSuiteEvent:
		d.handleCheckSuiteEvent(ctx, evCtx, event)
	}

	metrics.EventProcessed(kind)
}

// resolveEvent looks up the repository, organization and Slack destination
// of an event. It returns nil without an error when the event must be
// dropped.
func (d *Dispatcher) resolveEvent(ctx context.Context, logger *zap.Logger, kind EventKind, orgID, repoID int64) (*eventContext, error) {
	repo, err := d.registry.RepositoryByID(ctx, orgID, repoID)
	if err != nil {
		return nil, fmt.Errorf("looking up repository failed: %w", err)
	}

	if repo == nil {
		logger.Debug(
			"ignoring event, repository is not registered",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonUnknownRepo)
		return nil, nil
	}

	if !repo.Enabled {
		logger.Debug(
			"ignoring event, repository is disabled",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonDisabled)
		return nil, nil
	}

	org, err := d.registry.OrganizationByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("looking up organization failed: %w", err)
	}

	if org == nil {
		logger.Debug(
			"ignoring event, organization is not registered",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonUnknownRepo)
		return nil, nil
	}

	dest, err := d.registry.DestinationByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("looking up slack destination failed: %w", err)
	}

	if dest == nil {
		logger.Warn(
			"ignoring event, organization has no slack destination",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(kind, dropReasonUnknownRepo)
		return nil, nil
	}

	return &eventContext{
		logger: logger.With(logfields.Channel(dest.ChannelID)),
		kind:   kind,
		repo:   repo,
		org:    org,
		dest:   dest,
		slack:  d.slackFactory(dest.AccessToken),
	}, nil
}

// checkBilling evaluates the billing gate and executes the side effects it
// requests. It returns false when the event must not be processed.
// Read errors fail open, a billing hiccup must not drop events of paying
// customers.
func (d *Dispatcher) checkBilling(ctx context.Context, evCtx *eventContext) (bool, error) {
	rec, err := d.billing.Get(ctx, evCtx.org.ID)
	if err != nil {
		return true, err
	}

	now := d.clock()
	decision := billing.Evaluate(evCtx.org.SubscriptionStatus, rec, now)

	if decision.ClearStatus {
		if err := d.billing.Clear(ctx, evCtx.org.ID); err != nil {
			evCtx.logger.Error(
				"clearing past-due state failed",
				logfields.Event("billing_update_failed"),
				zap.Error(err),
			)
		}
	}

	if decision.RecordStart {
		if err := d.billing.Start(ctx, evCtx.org.ID, now); err != nil {
			evCtx.logger.Error(
				"recording past-due start failed",
				logfields.Event("billing_update_failed"),
				zap.Error(err),
			)
		}
	}

	if decision.SendWarning {
		text := fmt.Sprintf(
			"The subscription of *%s* is past due. Pull request updates will stop in %d days unless the payment method is updated.",
			evCtx.org.Login, decision.DaysRemaining,
		)

		if _, err := evCtx.slack.PostMessage(ctx, evCtx.dest.ChannelID, text, nil); err != nil {
			evCtx.logger.Error(
				"posting billing warning failed",
				logfields.Event("slack_message_failed"),
				zap.Error(err),
			)
		} else {
			metrics.SlackMessageSent(messageTypeBilling)
			if err := d.billing.SetWarningSent(ctx, evCtx.org.ID, now); err != nil {
				evCtx.logger.Error(
					"recording sent billing warning failed",
					logfields.Event("billing_update_failed"),
					zap.Error(err),
				)
			}
		}
	}

	if decision.SendServicePaused {
		text := fmt.Sprintf(
			"The subscription of *%s* is past due and the grace period ended. Pull request updates are paused until the payment method is updated.",
			evCtx.org.Login,
		)

		if _, err := evCtx.slack.PostMessage(ctx, evCtx.dest.ChannelID, text, nil); err != nil {
			evCtx.logger.Error(
				"posting service-paused notice failed",
				logfields.Event("slack_message_failed"),
				zap.Error(err),
			)
		} else {
			metrics.SlackMessageSent(messageTypeBilling)
			if err := d.billing.SetPausedSent(ctx, evCtx.org.ID, now); err != nil {
				evCtx.logger.Error(
					"recording sent service-paused notice failed",
					logfields.Event("billing_update_failed"),
					zap.Error(err),
				)
			}
		}
	}

	return decision.Continue, nil
}

// eventRepository extracts the repository from the payload types of all
// supported webhook events.
func eventRepository(event any) *github.Repository {
	switch ev := event.(type) {
	case *github.PullRequestEvent:
		return ev.GetRepo()
	case *github.PullRequestReviewEvent:
		return ev.GetRepo()
	case *github.PullRequestReviewCommentEvent:
		return ev.GetRepo()
	case *github.IssueCommentEvent:
		return ev.GetRepo()
	case *github.CheckRunEvent:
		return ev.GetRepo()
	case *github.CheckSuiteEvent:
		return ev.GetRepo()
	default:
		return nil
	}
}
