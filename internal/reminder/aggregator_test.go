package reminder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/threadrelay/threadrelay/internal/store"
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

type digest struct {
	ChannelID   string
	Token       string
	Text        string
	Blocks      []slack.Block
	Attachments []slack.Attachment
}

type fakeSlack struct {
	mu      sync.Mutex
	Digests []digest
}

type fakeSlackClient struct {
	parent *fakeSlack
	token  string
}

func (f *fakeSlack) factory() SlackClientFactory {
	return func(token string) SlackClient {
		return &fakeSlackClient{parent: f, token: token}
	}
}

func (c *fakeSlackClient) PostBlocks(_ context.Context, channelID, fallbackText string, blocks []slack.Block, attachments []slack.Attachment) (string, error) {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	c.parent.Digests = append(c.parent.Digests, digest{
		ChannelID:   channelID,
		Token:       c.token,
		Text:        fallbackText,
		Blocks:      blocks,
		Attachments: attachments,
	})
	return "1670000001.000100", nil
}

func seedOrg(t *testing.T, db *store.DB, orgID int64, teamID string) {
	t.Helper()

	ctx := context.Background()
	registry := store.NewRegistryRepo(db)
	orgLogin := fmt.Sprintf("org%d", orgID)

	require.NoError(t, registry.UpsertOrganization(ctx, &store.Organization{
		ID:                 orgID,
		Login:              orgLogin,
		SubscriptionStatus: "active",
	}))
	require.NoError(t, registry.UpsertRepository(ctx, &store.Repository{
		ID:      orgID * 10,
		OrgID:   orgID,
		Owner:   orgLogin,
		Name:    "repo",
		Enabled: true,
	}))
	require.NoError(t, registry.UpsertDestination(ctx, &store.Destination{
		OrgID:       orgID,
		ChannelID:   fmt.Sprintf("C%d", orgID),
		AccessToken: fmt.Sprintf("xoxb-%d", orgID),
		TeamID:      teamID,
	}))
}

func seedStalePR(t *testing.T, db *store.DB, orgID int64, prNumber int, age time.Duration, now time.Time) {
	t.Helper()

	required := 2
	require.NoError(t, store.NewThreadRepo(db).Upsert(context.Background(), &store.Thread{
		RepoID:            orgID * 10,
		PRNumber:          prNumber,
		ThreadTS:          fmt.Sprintf("167000%04d.000100", prNumber),
		Title:             fmt.Sprintf("change %d", prNumber),
		URL:               fmt.Sprintf("https://github.example/org%d/repo/pull/%d", orgID, prNumber),
		AuthorLogin:       "author",
		BaseBranch:        "main",
		Status:            store.ThreadStatusOpen,
		RequiredApprovals: &required,
		ApprovalCount:     0,
		CreatedAt:         now.Add(-age),
	}))
}

func TestRunOncePostsOneDigestPerOrganization(t *testing.T) {
	initTestLogger(t)

	db := setupTestDB(t)
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	// two organizations in the same workspace must not share a digest
	seedOrg(t, db, 1, "T0SHARED")
	seedOrg(t, db, 2, "T0SHARED")
	seedStalePR(t, db, 1, 1, 6*time.Hour, now)
	seedStalePR(t, db, 1, 2, 5*time.Hour, now)
	seedStalePR(t, db, 2, 3, 8*time.Hour, now)

	slackClt := fakeSlack{}
	a := New(db, slackClt.factory(), DefInterval, DefMinAge)
	a.clock = func() time.Time { return now }

	// the digest counter is process global, only its delta is meaningful
	sentBefore := testutil.ToFloat64(metrics.sentDigests)

	a.RunOnce(context.Background())

	require.Len(t, slackClt.Digests, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.sentDigests)-sentBefore)

	// ordering follows the oldest pull request of each group
	first, second := slackClt.Digests[0], slackClt.Digests[1]
	assert.Equal(t, "C2", first.ChannelID)
	assert.Equal(t, "xoxb-2", first.Token)
	assert.Len(t, first.Attachments, 1)

	assert.Equal(t, "C1", second.ChannelID)
	assert.Equal(t, "xoxb-1", second.Token)
	assert.Len(t, second.Attachments, 2)
	assert.Equal(t, "2 pull requests are waiting for review", second.Text)
}

func TestRunOnceIgnoresFreshPullRequests(t *testing.T) {
	initTestLogger(t)

	db := setupTestDB(t)
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	seedOrg(t, db, 1, "T0TEST")
	seedStalePR(t, db, 1, 1, time.Hour, now)

	slackClt := fakeSlack{}
	a := New(db, slackClt.factory(), DefInterval, DefMinAge)
	a.clock = func() time.Time { return now }

	a.RunOnce(context.Background())

	assert.Empty(t, slackClt.Digests)
}

func TestRunOnceWithoutStalePRsPostsNothing(t *testing.T) {
	initTestLogger(t)

	db := setupTestDB(t)
	seedOrg(t, db, 1, "T0TEST")

	slackClt := fakeSlack{}
	a := New(db, slackClt.factory(), DefInterval, DefMinAge)

	a.RunOnce(context.Background())

	assert.Empty(t, slackClt.Digests)
}

func TestGroupStaleNeverMixesOrganizations(t *testing.T) {
	stale := []*store.StalePullRequest{
		{OrgID: 1, TeamID: "T1"},
		{OrgID: 2, TeamID: "T1"},
		{OrgID: 1, TeamID: "T1"},
		{OrgID: 1, TeamID: "T2"},
	}

	keys, groups := groupStale(stale)

	require.Len(t, keys, 3)
	assert.Equal(t, GroupKey{OrgID: 1, TeamID: "T1"}, keys[0])
	assert.Len(t, groups[GroupKey{OrgID: 1, TeamID: "T1"}], 2)
	assert.Len(t, groups[GroupKey{OrgID: 2, TeamID: "T1"}], 1)
	assert.Len(t, groups[GroupKey{OrgID: 1, TeamID: "T2"}], 1)

	for key, prs := range groups {
		for _, pr := range prs {
			assert.Equal(t, key.OrgID, pr.OrgID)
			assert.Equal(t, key.TeamID, pr.TeamID)
		}
	}
}
