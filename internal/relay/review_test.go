package relay

import (
	"context"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewEvent(action, state string, prNumber int) *github.PullRequestReviewEvent {
	return &github.PullRequestReviewEvent{
		Action: github.String(action),
		Review: &github.PullRequestReview{
			State: github.String(state),
			User:  &github.User{Login: github.String("reviewer1")},
		},
		PullRequest: ghPullRequest(prNumber, false),
		Repo:        ghRepository(),
	}
}

func TestApprovedReviewIncrementsApprovalCount(t *testing.T) {
	db := setupTestDB(t)
	seedRegistration(t, db, "active")
	d, slackClt := setupDispatcher(t, db, newGithubClientMock(t))

	processPREvent(t, d, prEvent("opened", ghPullRequest(1, false)))
	updatesAfterOpen := len(slackClt.Updated)

	d.Process(context.Background(), toProviderEvent(reviewEvent("submitted", "approved", 1)))

	assert.Equal(t, 1, storedThread(t, d, 1).ApprovalCount)
	require.NotEmpty(t, slackClt.Replies)
	assert.Contains(t, slackClt.Replies[len(slackClt.Replies)-1].Text, "approved")
	assert.Len(t, slackClt.Updated, updatesAfterOpen+1)
}

func TestChangesRequestedPostsNoticeWithoutRerender(t *testing.T) {
	db := setupTestDB(t)
	seedRegistration(t, db, "active")
	d, slackClt := setupDispatcher(t, db, newGithubClientMock(t))

	processPREvent(t, d, prEvent("opened", ghPullRequest(1, false)))
	updatesAfterOpen := len(slackClt.Updated)

	d.Process(context.Background(), toProviderEvent(reviewEvent("submitted", "changes_requested", 1)))

	assert.Equal(t, 0, storedThread(t, d, 1).ApprovalCount)
	require.NotEmpty(t, slackClt.Replies)
	assert.Contains(t, slackClt.Replies[len(slackClt.Replies)-1].Text, "requested changes")
	assert.Len(t, slackClt.Updated, updatesAfterOpen)
}

func TestDismissedReviewDecrementsApprovalCount(t *testing.T) {
	db := setupTestDB(t)
	seedRegistration(t, db, "active")
	d, _ := setupDispatcher(t, db, newGithubClientMock(t))

	processPREvent(t, d, prEvent("opened", ghPullRequest(1, false)))

	d.Process(context.Background(), toProviderEvent(reviewEvent("submitted", "approved", 1)))
	require.Equal(t, 1, storedThread(t, d, 1).ApprovalCount)

	d.Process(context.Background(), toProviderEvent(reviewEvent("dismissed", "dismissed", 1)))
	assert.Equal(t, 0, storedThread(t, d, 1).ApprovalCount)

	// the count never goes negative
	d.Process(context.Background(), toProviderEvent(reviewEvent("dismissed", "dismissed", 1)))
	assert.Equal(t, 0, storedThread(t, d, 1).ApprovalCount)
}
