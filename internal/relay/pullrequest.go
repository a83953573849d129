package relay

import (
	"context"
	"fmt"

	"github.com/google/go-github/v59/github"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/render"
	"github.com/threadrelay/threadrelay/internal/store"
)

func (d *Dispatcher) handlePullRequestEvent(ctx context.Context, evCtx *eventContext, ev *github.PullRequestEvent) {
	pr := ev.GetPullRequest()
	logger := evCtx.logger.With(
		logfields.PullRequest(pr.GetNumber()),
		zap.String("github.action", ev.GetAction()),
	)

	switch ev.GetAction() {
	case "opened":
		if pr.GetDraft() {
			d.recordDraft(ctx, logger, evCtx, pr)
			return
		}

		d.openThread(ctx, logger, evCtx, pr)

	case "ready_for_review":
		d.openThread(ctx, logger, evCtx, pr)

	case "edited":
		d.applyEdit(ctx, logger, evCtx, pr)

	case "review_requested":
		d.addReviewer(ctx, logger, evCtx, pr, ev.GetRequestedReviewer().GetLogin())

	case "review_request_removed":
		d.removeReviewer(ctx, logger, evCtx, pr, ev.GetRequestedReviewer().GetLogin())

	case "converted_to_draft":
		d.convertToDraft(ctx, logger, evCtx, pr)

	case "closed":
		d.closeThread(ctx, logger, evCtx, pr)

	case "enqueued":
		d.setQueued(ctx, logger, evCtx, pr, true)

	case "dequeued":
		d.setQueued(ctx, logger, evCtx, pr, false)

	default:
		logger.Debug(
			"ignoring pull request event, action is unsupported",
			logfields.Event("event_dropped"),
		)
	}
}

// recordDraft persists a draft pull request without creating a Slack thread.
// The thread is created when the PR becomes ready for review.
func (d *Dispatcher) recordDraft(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest) {
	th := threadFromPayload(evCtx.repo.ID, pr)

	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting draft pull request failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	logger.Debug(
		"draft pull request recorded, thread creation deferred",
		logfields.Event("draft_recorded"),
	)
}

// openThread creates the Slack thread of a pull request.
// When a thread already exists, which happens when a draft PR that was
// opened as non-draft earlier becomes ready again, the existing main message
// is updated in place and a ready notice is posted instead.
func (d *Dispatcher) openThread(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest) {
	existing, err := d.threads.Get(ctx, evCtx.repo.ID, pr.GetNumber())
	if err != nil {
		logger.Error(
			"reading thread state failed",
			logfields.Event("thread_read_failed"),
			zap.Error(err),
		)
		return
	}

	th := threadFromPayload(evCtx.repo.ID, pr)
	th.IsDraft = false

	if existing != nil && existing.ThreadTS != "" {
		// A merged or closed pull request cannot become ready again, a
		// ready_for_review or duplicate opened delivery arriving after the
		// close is stale and must not reopen the thread.
		if existing.Status != store.ThreadStatusOpen {
			logger.Debug(
				"ignoring event, pull request thread is already terminal",
				logfields.Event("event_dropped"),
			)
			metrics.EventDropped(evCtx.kind, dropReasonStale)
			return
		}

		th.ThreadTS = existing.ThreadTS
		th.ApprovalCount = existing.ApprovalCount
		th.RequiredApprovals = existing.RequiredApprovals

		if err := d.threads.Upsert(ctx, th); err != nil {
			logger.Error(
				"persisting thread state failed",
				logfields.Event("thread_persist_failed"),
				zap.Error(err),
			)
			return
		}

		d.postThreadNotice(ctx, logger, evCtx, th,
			fmt.Sprintf("%s is ready for review", notificationText(th)))
		d.rerender(ctx, logger, evCtx, th)
		return
	}

	required, err := d.approvals.RequiredApprovals(ctx, evCtx.repo, th.BaseBranch)
	if err != nil {
		// The requirement stays unknown, the approvals attachment is
		// omitted until a later event resolves it.
		logger.Error(
			"resolving approval requirement failed",
			logfields.Event("approval_lookup_failed"),
			zap.Error(err),
		)
	}
	th.RequiredApprovals = required

	ts, err := evCtx.slack.PostMessage(
		ctx,
		evCtx.dest.ChannelID,
		notificationText(th),
		d.renderMessage(ctx, evCtx, th),
	)
	if err != nil {
		logger.Error(
			"posting main message failed",
			logfields.Event("slack_message_failed"),
			zap.Error(err),
		)
		return
	}
	metrics.SlackMessageSent(messageTypeMain)

	th.ThreadTS = ts
	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			logfields.ThreadTS(ts),
			zap.Error(err),
		)
		return
	}

	logger.Info(
		"thread created",
		logfields.Event("thread_created"),
		logfields.ThreadTS(ts),
	)

	d.replayReviewComments(ctx, logger, evCtx, th)

	for _, reviewer := range th.Reviewers {
		d.dmReviewer(ctx, logger, evCtx, th, reviewer)
	}
}

// replayReviewComments posts the inline review comments that were written
// before the thread existed, oldest first. Draft PRs accumulate comments
// that would otherwise be lost.
func (d *Dispatcher) replayReviewComments(ctx context.Context, logger *zap.Logger, evCtx *eventContext, th *store.Thread) {
	comments, err := d.gh.ListReviewComments(ctx, evCtx.repo.Owner, evCtx.repo.Name, th.PRNumber)
	if err != nil {
		logger.Error(
			"listing existing review comments failed",
			logfields.Event("comment_replay_failed"),
			zap.Error(err),
		)
		return
	}

	for _, c := range comments {
		text := fmt.Sprintf("*%s* commented:\n%s", c.AuthorLogin, render.Body(c.Body))
		if _, err := evCtx.slack.PostThreadReply(ctx, evCtx.dest.ChannelID, th.ThreadTS, text); err != nil {
			logger.Error(
				"replaying review comment failed",
				logfields.Event("slack_message_failed"),
				zap.Error(err),
			)
			continue
		}
		metrics.SlackMessageSent(messageTypeReply)

		threadID := c.InReplyToID
		if threadID == 0 {
			threadID = c.ID
		}

		if _, err := d.participants.Add(ctx, evCtx.repo.ID, th.PRNumber, threadID, c.AuthorLogin); err != nil {
			logger.Error(
				"recording comment participant failed",
				logfields.Event("participant_persist_failed"),
				zap.Error(err),
			)
		}
	}
}

// applyEdit updates the persisted state and re-renders when the title, body
// or base branch changed. Edits to anything else are ignored.
func (d *Dispatcher) applyEdit(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest) {
	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	if th.Title == pr.GetTitle() && th.Body == pr.GetBody() && th.BaseBranch == pr.GetBase().GetRef() {
		logger.Debug(
			"ignoring edit, no rendered field changed",
			logfields.Event("event_dropped"),
		)
		return
	}

	th.Title = pr.GetTitle()
	th.Body = pr.GetBody()
	th.BaseBranch = pr.GetBase().GetRef()
	th.Additions = pr.GetAdditions()
	th.Deletions = pr.GetDeletions()

	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.rerender(ctx, logger, evCtx, th)
}

// addReviewer records a requested reviewer and notifies them via DM.
// The main message is not re-rendered here, review requests arrive in
// bursts and each burst already ends in other re-rendering events.
func (d *Dispatcher) addReviewer(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest, reviewer string) {
	if reviewer == "" {
		logger.Debug(
			"ignoring review request, requested reviewer is a team",
			logfields.Event("event_dropped"),
		)
		return
	}

	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	for _, r := range th.Reviewers {
		if r == reviewer {
			return
		}
	}

	th.Reviewers = append(th.Reviewers, reviewer)
	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.dmReviewer(ctx, logger, evCtx, th, reviewer)
}

func (d *Dispatcher) removeReviewer(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest, reviewer string) {
	if reviewer == "" {
		logger.Debug(
			"ignoring review request removal, requested reviewer is a team",
			logfields.Event("event_dropped"),
		)
		return
	}

	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	kept := th.Reviewers[:0]
	for _, r := range th.Reviewers {
		if r != reviewer {
			kept = append(kept, r)
		}
	}
	th.Reviewers = kept

	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.postThreadNotice(ctx, logger, evCtx, th,
		fmt.Sprintf("Review request for *%s* was removed", reviewer))
}

func (d *Dispatcher) convertToDraft(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest) {
	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	th.IsDraft = true
	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.postThreadNotice(ctx, logger, evCtx, th,
		fmt.Sprintf("%s was converted to a draft", notificationText(th)))
	d.rerender(ctx, logger, evCtx, th)
}

func (d *Dispatcher) closeThread(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest) {
	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	var notice string
	if pr.GetMerged() {
		th.Status = store.ThreadStatusMerged
		notice = fmt.Sprintf("%s was merged", notificationText(th))
	} else {
		th.Status = store.ThreadStatusClosed
		notice = fmt.Sprintf("%s was closed", notificationText(th))
	}
	th.QueuedToMerge = false

	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.postThreadNotice(ctx, logger, evCtx, th, notice)
	d.rerender(ctx, logger, evCtx, th)
	d.dmUser(ctx, logger, evCtx, th.AuthorLogin, notice+": "+th.URL)
}

func (d *Dispatcher) setQueued(ctx context.Context, logger *zap.Logger, evCtx *eventContext, pr *github.PullRequest, queued bool) {
	th := d.threadedRow(ctx, logger, evCtx, pr.GetNumber())
	if th == nil {
		return
	}

	th.QueuedToMerge = queued
	if err := d.threads.Upsert(ctx, th); err != nil {
		logger.Error(
			"persisting thread state failed",
			logfields.Event("thread_persist_failed"),
			zap.Error(err),
		)
		return
	}

	d.rerender(ctx, logger, evCtx, th)
}

// threadedRow loads the thread state of a pull request.
// It returns nil, after logging, when the PR is unknown or has no Slack
// thread yet. Events for threadless PRs are dropped.
func (d *Dispatcher) threadedRow(ctx context.Context, logger *zap.Logger, evCtx *eventContext, prNumber int) *store.Thread {
	th, err := d.threads.Get(ctx, evCtx.repo.ID, prNumber)
	if err != nil {
		logger.Error(
			"reading thread state failed",
			logfields.Event("thread_read_failed"),
			zap.Error(err),
		)
		return nil
	}

	if th == nil || th.ThreadTS == "" {
		logger.Debug(
			"ignoring event, pull request has no thread",
			logfields.Event("event_dropped"),
		)
		metrics.EventDropped(evCtx.kind, dropReasonNoThread)
		return nil
	}

	return th
}

// rerender rebuilds the complete main message and updates it in place.
// When the approval requirement is still unknown it is looked up again, a
// later lookup can succeed after permissions were granted.
func (d *Dispatcher) rerender(ctx context.Context, logger *zap.Logger, evCtx *eventContext, th *store.Thread) {
	if th.RequiredApprovals == nil {
		required, err := d.approvals.RequiredApprovals(ctx, evCtx.repo, th.BaseBranch)
		if err != nil {
			logger.Error(
				"resolving approval requirement failed",
				logfields.Event("approval_lookup_failed"),
				zap.Error(err),
			)
		} else if required != nil {
			th.RequiredApprovals = required
			if err := d.threads.Upsert(ctx, th); err != nil {
				logger.Error(
					"persisting thread state failed",
					logfields.Event("thread_persist_failed"),
					zap.Error(err),
				)
			}
		}
	}

	err := evCtx.slack.UpdateMessage(
		ctx,
		evCtx.dest.ChannelID,
		th.ThreadTS,
		notificationText(th),
		d.renderMessage(ctx, evCtx, th),
	)
	if err != nil {
		logger.Error(
			"updating main message failed",
			logfields.Event("slack_message_failed"),
			logfields.ThreadTS(th.ThreadTS),
			zap.Error(err),
		)
		return
	}

	metrics.SlackMessageSent(messageTypeUpdate)
}

// renderMessage builds the full attachment list of the main message.
// When the author's Slack account is linked the context line mentions it,
// otherwise the github login is shown.
func (d *Dispatcher) renderMessage(ctx context.Context, evCtx *eventContext, th *store.Thread) []slack.Attachment {
	author := th.AuthorLogin
	if user, err := d.users.ByGithubLogin(ctx, th.AuthorLogin); err == nil && user != nil {
		author = fmt.Sprintf("<@%s>", user.SlackUserID)
	}

	view := render.ThreadView{
		Title:           th.Title,
		URL:             th.URL,
		RepoName:        evCtx.repo.Name,
		OwnerAvatarURL:  evCtx.org.AvatarURL,
		AuthorAvatarURL: th.AuthorAvatarURL,
		BaseBranch:      th.BaseBranch,
		Additions:       th.Additions,
		Deletions:       th.Deletions,
		IsDraft:         th.IsDraft,
		Status:          th.Status,
		QueuedToMerge:   th.QueuedToMerge,
		ApprovalCount:   th.ApprovalCount,
		Reviewers:       th.Reviewers,
	}

	return render.MainMessage(render.Body(th.Body), author, &view, th.RequiredApprovals)
}

func (d *Dispatcher) postThreadNotice(ctx context.Context, logger *zap.Logger, evCtx *eventContext, th *store.Thread, text string) {
	if _, err := evCtx.slack.PostThreadReply(ctx, evCtx.dest.ChannelID, th.ThreadTS, text); err != nil {
		logger.Error(
			"posting thread notice failed",
			logfields.Event("slack_message_failed"),
			logfields.ThreadTS(th.ThreadTS),
			zap.Error(err),
		)
		return
	}

	metrics.SlackMessageSent(messageTypeReply)
}

// dmReviewer notifies a requested reviewer via DM when their Slack account
// is linked. Unlinked reviewers are skipped silently.
func (d *Dispatcher) dmReviewer(ctx context.Context, logger *zap.Logger, evCtx *eventContext, th *store.Thread, reviewer string) {
	d.dmUser(ctx, logger, evCtx, reviewer,
		fmt.Sprintf("Your review was requested on <%s|%s>", th.URL, notificationText(th)))
}

func (d *Dispatcher) dmUser(ctx context.Context, logger *zap.Logger, evCtx *eventContext, githubLogin, text string) {
	user, err := d.users.ByGithubLogin(ctx, githubLogin)
	if err != nil {
		logger.Error(
			"looking up linked user failed",
			logfields.Event("user_lookup_failed"),
			zap.Error(err),
		)
		return
	}

	if user == nil {
		return
	}

	if _, _, err := evCtx.slack.PostDM(ctx, user.SlackUserID, text); err != nil {
		logger.Error(
			"sending direct message failed",
			logfields.Event("slack_message_failed"),
			logfields.SlackUser(user.SlackUserID),
			zap.Error(err),
		)
		return
	}

	metrics.SlackMessageSent(messageTypeDM)
}

// notificationText is the deterministic plain-text fallback of a pull
// request's messages.
func notificationText(th *store.Thread) string {
	return fmt.Sprintf("Pull request #%d: %s", th.PRNumber, th.Title)
}

func threadFromPayload(repoID int64, pr *github.PullRequest) *store.Thread {
	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, r := range pr.RequestedReviewers {
		if login := r.GetLogin(); login != "" {
			reviewers = append(reviewers, login)
		}
	}

	return &store.Thread{
		RepoID:          repoID,
		PRNumber:        pr.GetNumber(),
		Title:           pr.GetTitle(),
		Body:            pr.GetBody(),
		URL:             pr.GetHTMLURL(),
		AuthorLogin:     pr.GetUser().GetLogin(),
		AuthorAvatarURL: pr.GetUser().GetAvatarURL(),
		BaseBranch:      pr.GetBase().GetRef(),
		Additions:       pr.GetAdditions(),
		Deletions:       pr.GetDeletions(),
		IsDraft:         pr.GetDraft(),
		Status:          store.ThreadStatusOpen,
		Reviewers:       reviewers,
		CreatedAt:       pr.GetCreatedAt().Time,
	}
}
