package relay

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	githubprov "github.com/threadrelay/threadrelay/internal/provider/github"
	"github.com/threadrelay/threadrelay/internal/store"
)

const (
	testOrgID     = int64(100)
	testRepoID    = int64(200)
	testOrgLogin  = "testorg"
	testRepoName  = "testrepo"
	testChannelID = "C0TEST"
	testTeamID    = "T0TEST"
	testToken     = "xoxb-test"
)

func initTestLogger(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.RunMigrations(db.Writer))

	return db
}

func seedRegistration(t *testing.T, db *store.DB, subscriptionStatus string) {
	t.Helper()

	ctx := context.Background()
	registry := store.NewRegistryRepo(db)

	require.NoError(t, registry.UpsertOrganization(ctx, &store.Organization{
		ID:                 testOrgID,
		Login:              testOrgLogin,
		AvatarURL:          "https://avatars.example/org.png",
		SubscriptionStatus: subscriptionStatus,
	}))

	require.NoError(t, registry.UpsertRepository(ctx, &store.Repository{
		ID:      testRepoID,
		OrgID:   testOrgID,
		Owner:   testOrgLogin,
		Name:    testRepoName,
		Enabled: true,
	}))

	require.NoError(t, registry.UpsertDestination(ctx, &store.Destination{
		OrgID:       testOrgID,
		ChannelID:   testChannelID,
		AccessToken: testToken,
		TeamID:      testTeamID,
	}))
}

type postedMessage struct {
	ChannelID   string
	ThreadTS    string
	UserID      string
	Text        string
	Attachments []slack.Attachment
}

// fakeSlack records all messages and hands out sequential timestamps.
type fakeSlack struct {
	mu sync.Mutex

	nextTS   int
	Posted   []postedMessage
	Updated  []postedMessage
	Replies  []postedMessage
	DMs      []postedMessage
	PostErr  error
	ReplyErr error
}

func (f *fakeSlack) newTS() string {
	f.nextTS++
	return fmt.Sprintf("167%07d.000100", f.nextTS)
}

func (f *fakeSlack) PostMessage(_ context.Context, channelID, text string, attachments []slack.Attachment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PostErr != nil {
		return "", f.PostErr
	}

	f.Posted = append(f.Posted, postedMessage{ChannelID: channelID, Text: text, Attachments: attachments})
	return f.newTS(), nil
}

func (f *fakeSlack) UpdateMessage(_ context.Context, channelID, ts, text string, attachments []slack.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Updated = append(f.Updated, postedMessage{ChannelID: channelID, ThreadTS: ts, Text: text, Attachments: attachments})
	return nil
}

func (f *fakeSlack) PostThreadReply(_ context.Context, channelID, threadTS, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReplyErr != nil {
		return "", f.ReplyErr
	}

	f.Replies = append(f.Replies, postedMessage{ChannelID: channelID, ThreadTS: threadTS, Text: text})
	return f.newTS(), nil
}

func (f *fakeSlack) PostDM(_ context.Context, userID, text string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ts := f.newTS()
	f.DMs = append(f.DMs, postedMessage{ChannelID: "D" + userID, ThreadTS: ts, UserID: userID, Text: text})
	return "D" + userID, ts, nil
}

func (f *fakeSlack) factory() SlackClientFactory {
	return func(string) SlackClient { return f }
}

func setupDispatcher(t *testing.T, db *store.DB, gh GithubClient) (*Dispatcher, *fakeSlack) {
	t.Helper()

	initTestLogger(t)

	slackClt := fakeSlack{}
	d := NewDispatcher(db, gh, slackClt.factory())

	return d, &slackClt
}

func ghRepository() *github.Repository {
	return &github.Repository{
		ID:   github.Int64(testRepoID),
		Name: github.String(testRepoName),
		Owner: &github.User{
			ID:    github.Int64(testOrgID),
			Login: github.String(testOrgLogin),
		},
	}
}

func ghPullRequest(number int, draft bool) *github.PullRequest {
	return &github.PullRequest{
		Number:    github.Int(number),
		Title:     github.String("add frobnicator"),
		Body:      github.String("implements the frobnicator"),
		HTMLURL:   github.String(fmt.Sprintf("https://github.example/%s/%s/pull/%d", testOrgLogin, testRepoName, number)),
		Draft:     github.Bool(draft),
		Additions: github.Int(10),
		Deletions: github.Int(2),
		User: &github.User{
			Login:     github.String("author"),
			AvatarURL: github.String("https://avatars.example/author.png"),
		},
		Base: &github.PullRequestBranch{
			Ref: github.String("main"),
		},
		CreatedAt: &github.Timestamp{Time: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func prEvent(action string, pr *github.PullRequest) *github.PullRequestEvent {
	return &github.PullRequestEvent{
		Action:      github.String(action),
		Number:      pr.Number,
		PullRequest: pr,
		Repo:        ghRepository(),
	}
}

func toProviderEvent(event any) *githubprov.Event {
	var typ string

	switch event.(type) {
	case *github.PullRequestEvent:
		typ = "pull_request"
	case *github.PullRequestReviewEvent:
		typ = "pull_request_review"
	case *github.PullRequestReviewCommentEvent:
		typ = "pull_request_review_comment"
	case *github.IssueCommentEvent:
		typ = "issue_comment"
	case *github.CheckRunEvent:
		typ = "check_run"
	case *github.CheckSuiteEvent:
		typ = "check_suite"
	}

	return &githubprov.Event{
		DeliveryID: "test-delivery",
		Type:       typ,
		Event:      event,
	}
}

func processPREvent(t *testing.T, d *Dispatcher, ev *github.PullRequestEvent) {
	t.Helper()

	d.Process(context.Background(), toProviderEvent(ev))
}

func storedThread(t *testing.T, d *Dispatcher, prNumber int) *store.Thread {
	t.Helper()

	th, err := d.threads.Get(context.Background(), testRepoID, prNumber)
	require.NoError(t, err)

	return th
}
