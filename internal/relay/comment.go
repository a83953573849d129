package relay

import (
	"context"
	"fmt"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/render"
	"github.com/threadrelay/threadrelay/internal/store"
)

// issueCommentThreadID keys participants of top-level PR comments, which
// have no review thread.
const issueCommentThreadID = 0

func (d *Dispatcher) handleReviewCommentEvent(ctx context.Context, evCtx *eventContext, ev *github.PullRequestReviewCommentEvent) {
	comment := ev.GetComment()
	prNumber := ev.GetPullRequest().GetNumber()

	logger := evCtx.logger.With(
		logfields.PullRequest(prNumber),
		zap.String("github.action", ev.GetAction()),
		zap.Int64("github.comment_id", comment.GetID()),
	)

	if ev.GetAction() != "created" {
		logger.Debug(
			"ignoring review comment event, action is unsupported",
			logfields.Event("event_dropped"),
		)
		return
	}

	th := d.threadedRow(ctx, logger, evCtx, prNumber)
	if th == nil {
		return
	}

	author := comment.GetUser().GetLogin()

	text := fmt.Sprintf(
		"*%s* commented on `%s`:\n%s",
		author, comment.GetPath(), render.Body(comment.GetBody()),
	)
	d.postThreadNotice(ctx, logger, evCtx, th, text)

	threadID := comment.GetInReplyTo()
	if threadID == 0 {
		threadID = comment.GetID()
	}

	d.notifyParticipants(ctx, logger, evCtx, th, threadID, author,
		comment.GetID(), store.CommentTypeReview, comment.GetBody())
}

func (d *Dispatcher) handleIssueCommentEvent(ctx context.Context, evCtx *eventContext, ev *github.IssueCommentEvent) {
	issue := ev.GetIssue()
	comment := ev.GetComment()

	logger := evCtx.logger.With(
		logfields.PullRequest(issue.GetNumber()),
		zap.String("github.action", ev.GetAction()),
		zap.Int64("github.comment_id", comment.GetID()),
	)

	if !issue.IsPullRequest() {
		logger.Debug(
			"ignoring comment, issue is not a pull request",
			logfields.Event("event_dropped"),
		)
		return
	}

	if ev.GetAction() != "created" {
		logger.Debug(
			"ignoring issue comment event, action is unsupported",
			logfields.Event("event_dropped"),
		)
		return
	}

	th := d.threadedRow(ctx, logger, evCtx, issue.GetNumber())
	if th == nil {
		return
	}

	author := comment.GetUser().GetLogin()

	text := fmt.Sprintf("*%s* commented:\n%s", author, render.Body(comment.GetBody()))
	d.postThreadNotice(ctx, logger, evCtx, th, text)

	d.notifyParticipants(ctx, logger, evCtx, th, issueCommentThreadID, author,
		comment.GetID(), store.CommentTypeIssue, comment.GetBody())
}

// notifyParticipants sends a DM about a new comment to every linked user
// that commented in the same discussion before, except the commenter. Each
// DM records a DMCommentLink so reactions on it can be synced back to the
// github comment.
func (d *Dispatcher) notifyParticipants(
	ctx context.Context,
	logger *zap.Logger,
	evCtx *eventContext,
	th *store.Thread,
	threadID int64,
	author string,
	commentID int64,
	commentType string,
	commentBody string,
) {
	prior, err := d.participants.List(ctx, evCtx.repo.ID, th.PRNumber, threadID)
	if err != nil {
		logger.Error(
			"listing comment participants failed",
			logfields.Event("participant_read_failed"),
			zap.Error(err),
		)
		return
	}

	if _, err := d.participants.Add(ctx, evCtx.repo.ID, th.PRNumber, threadID, author); err != nil {
		logger.Error(
			"recording comment participant failed",
			logfields.Event("participant_persist_failed"),
			zap.Error(err),
		)
	}

	text := fmt.Sprintf(
		"*%s* replied on <%s|%s>:\n%s",
		author, th.URL, notificationText(th), render.Body(commentBody),
	)

	for _, participant := range prior {
		if participant == author {
			continue
		}

		user, err := d.users.ByGithubLogin(ctx, participant)
		if err != nil {
			logger.Error(
				"looking up linked user failed",
				logfields.Event("user_lookup_failed"),
				zap.Error(err),
			)
			continue
		}

		if user == nil {
			continue
		}

		channelID, ts, err := evCtx.slack.PostDM(ctx, user.SlackUserID, text)
		if err != nil {
			logger.Error(
				"sending comment notification failed",
				logfields.Event("slack_message_failed"),
				logfields.SlackUser(user.SlackUserID),
				zap.Error(err),
			)
			continue
		}
		metrics.SlackMessageSent(messageTypeDM)

		link := store.DMCommentLink{
			ChannelID:   channelID,
			MessageTS:   ts,
			CommentID:   commentID,
			CommentType: commentType,
			RepoOwner:   evCtx.repo.Owner,
			RepoName:    evCtx.repo.Name,
			OrgID:       evCtx.org.ID,
		}
		if err := d.dmLinks.Insert(ctx, &link); err != nil {
			logger.Error(
				"persisting comment link failed",
				logfields.Event("comment_link_persist_failed"),
				zap.Error(err),
			)
		}
	}
}
