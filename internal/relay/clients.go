package relay

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/threadrelay/threadrelay/internal/githubclt"
)

// GithubClient is the subset of the github API the dispatcher uses.
type GithubClient interface {
	RequiredApprovals(ctx context.Context, owner, repo, branch string) (count int, ok bool, err error)
	ListCheckRuns(ctx context.Context, owner, repo, ref string) (*githubclt.CheckRunsResult, error)
	ListReviewComments(ctx context.Context, owner, repo string, prNumber int) ([]*githubclt.ReviewComment, error)
}

// SlackClient is the subset of the slack API the dispatcher uses.
// Implementations act on behalf of one workspace access token.
type SlackClient interface {
	PostMessage(ctx context.Context, channelID, text string, attachments []slack.Attachment) (string, error)
	UpdateMessage(ctx context.Context, channelID, ts, text string, attachments []slack.Attachment) error
	PostThreadReply(ctx context.Context, channelID, threadTS, text string) (string, error)
	PostDM(ctx context.Context, userID, text string) (channelID, ts string, err error)
}

// SlackClientFactory returns a SlackClient for a workspace access token.
// Tokens differ per organization, clients are created per event.
type SlackClientFactory func(accessToken string) SlackClient
