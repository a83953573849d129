// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/threadrelay/threadrelay/internal/logfields"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "github_client"

// New returns a new github api client.
func New(oauthAPItoken string) *Client {
	return &Client{
		restClt: github.NewClient(newHTTPClient(oauthAPItoken)),
		logger:  zap.L().Named(loggerName),
	}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// Client is a github API client.
// All calls are bounded by the HTTP client timeout. Failures are terminal
// for the current delivery, the client never retries.
type Client struct {
	restClt *github.Client
	logger  *zap.Logger
}

// RequiredApprovals returns the number of approving reviews that branch
// protection requires for merging into the branch.
// ok is false when the installation lacks the permission scope to read the
// branch protection (HTTP 403). That is not an error, the requirement is
// simply unknown. Every other non-2xx response is returned as an error.
func (clt *Client) RequiredApprovals(ctx context.Context, owner, repo, branch string) (count int, ok bool, err error) {
	protection, _, err := clt.restClt.Repositories.GetBranchProtection(ctx, owner, repo, branch)
	if err != nil {
		if isHTTPStatus(err, http.StatusForbidden) {
			clt.logger.Debug(
				"branch protection lookup denied, approval requirement unknown",
				logfields.Event("github_branch_protection_forbidden"),
				logfields.RepositoryOwner(owner),
				logfields.Repository(repo),
				logfields.BaseBranch(branch),
			)

			return 0, false, nil
		}

		return 0, false, fmt.Errorf("getting branch protection of %s/%s@%s failed: %w", owner, repo, branch, err)
	}

	reviews := protection.GetRequiredPullRequestReviews()
	if reviews == nil {
		return 0, true, nil
	}

	return reviews.RequiredApprovingReviewCount, true, nil
}

type CheckRun struct {
	Status     string
	Conclusion string
}

type CheckRunsResult struct {
	Total int
	Runs  []CheckRun
}

// ListCheckRuns returns all check runs for a commit.
// Total is taken from the API response, not recomputed from the returned
// runs.
func (clt *Client) ListCheckRuns(ctx context.Context, owner, repo, ref string) (*CheckRunsResult, error) {
	result := CheckRunsResult{}

	opts := &github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		runs, resp, err := clt.restClt.Checks.ListCheckRunsForRef(ctx, owner, repo, ref, opts)
		if err != nil {
			return nil, fmt.Errorf("listing check runs of %s/%s@%s failed: %w", owner, repo, ref, err)
		}

		result.Total = runs.GetTotal()
		for _, run := range runs.CheckRuns {
			result.Runs = append(result.Runs, CheckRun{
				Status:     run.GetStatus(),
				Conclusion: run.GetConclusion(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return &result, nil
}

type ReviewComment struct {
	ID          int64
	InReplyToID int64
	AuthorLogin string
	Body        string
	CreatedAt   time.Time
}

// ListReviewComments returns the inline review comments of a pull request in
// creation order.
func (clt *Client) ListReviewComments(ctx context.Context, owner, repo string, prNumber int) ([]*ReviewComment, error) {
	var result []*ReviewComment

	opts := &github.PullRequestListCommentsOptions{
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := clt.restClt.PullRequests.ListComments(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing review comments of %s/%s#%d failed: %w", owner, repo, prNumber, err)
		}

		for _, c := range comments {
			result = append(result, &ReviewComment{
				ID:          c.GetID(),
				InReplyToID: c.GetInReplyTo(),
				AuthorLogin: c.GetUser().GetLogin(),
				Body:        c.GetBody(),
				CreatedAt:   c.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

// CreateCommentReaction adds a reaction to an issue comment or an inline
// review comment. commentType must be "issue" or "review".
func (clt *Client) CreateCommentReaction(ctx context.Context, owner, repo, commentType string, commentID int64, content string) error {
	var err error

	switch commentType {
	case "issue":
		_, _, err = clt.restClt.Reactions.CreateIssueCommentReaction(ctx, owner, repo, commentID, content)
	case "review":
		_, _, err = clt.restClt.Reactions.CreatePullRequestCommentReaction(ctx, owner, repo, commentID, content)
	default:
		return fmt.Errorf("unsupported comment type: %q", commentType)
	}

	if err != nil {
		return fmt.Errorf("creating %q reaction on %s comment %d failed: %w", content, commentType, commentID, err)
	}

	return nil
}

func isHTTPStatus(err error, status int) bool {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode == status
	}

	return false
}
