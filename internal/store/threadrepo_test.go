package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepo(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	th := makeThread(1, 1, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	th.IsDraft = true
	require.NoError(t, repo.Upsert(ctx, th))

	got, err = repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.ThreadTS)
	assert.True(t, got.IsDraft)
	assert.Equal(t, ThreadStatusOpen, got.Status)
	assert.Nil(t, got.RequiredApprovals)

	two := 2
	th.IsDraft = false
	th.ThreadTS = "1700000000.000100"
	th.RequiredApprovals = &two
	th.ApprovalCount = 1
	th.Reviewers = []string{"jim", "sarah"}
	require.NoError(t, repo.Upsert(ctx, th))

	got, err = repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1700000000.000100", got.ThreadTS)
	assert.False(t, got.IsDraft)
	require.NotNil(t, got.RequiredApprovals)
	assert.Equal(t, 2, *got.RequiredApprovals)
	assert.Equal(t, 1, got.ApprovalCount)
	assert.Equal(t, []string{"jim", "sarah"}, got.Reviewers)
}

func TestThreadRepo_ThreadTSIsWriteOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepo(db)
	ctx := context.Background()

	th := makeThread(1, 7, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	th.ThreadTS = "1700000000.000100"
	require.NoError(t, repo.Upsert(ctx, th))

	// a duplicated or reordered delivery must never replace the thread
	th.ThreadTS = "1700000099.000999"
	require.NoError(t, repo.Upsert(ctx, th))

	got, err := repo.Get(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1700000000.000100", got.ThreadTS)
}

func TestThreadRepo_ListStale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewThreadRepo(db)
	ctx := context.Background()

	addTestOrg(t, db, 10, "active")
	addTestRepo(t, db, 10, 100, "widgets")
	addTestDestination(t, db, 10, "T10")

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-4 * time.Hour)
	two := 2

	old := makeThread(100, 1, now.Add(-6*time.Hour))
	old.ThreadTS = "1.1"
	old.RequiredApprovals = &two
	require.NoError(t, repo.Upsert(ctx, old))

	older := makeThread(100, 2, now.Add(-30*time.Hour))
	older.ThreadTS = "1.2"
	older.RequiredApprovals = &two
	older.ApprovalCount = 1
	require.NoError(t, repo.Upsert(ctx, older))

	fresh := makeThread(100, 3, now.Add(-time.Hour))
	fresh.ThreadTS = "1.3"
	fresh.RequiredApprovals = &two
	require.NoError(t, repo.Upsert(ctx, fresh))

	approved := makeThread(100, 4, now.Add(-6*time.Hour))
	approved.ThreadTS = "1.4"
	approved.RequiredApprovals = &two
	approved.ApprovalCount = 2
	require.NoError(t, repo.Upsert(ctx, approved))

	draft := makeThread(100, 5, now.Add(-6*time.Hour))
	draft.IsDraft = true
	require.NoError(t, repo.Upsert(ctx, draft))

	unknownReq := makeThread(100, 6, now.Add(-6*time.Hour))
	unknownReq.ThreadTS = "1.6"
	require.NoError(t, repo.Upsert(ctx, unknownReq))

	stale, err := repo.ListStale(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 2)

	// oldest first
	assert.Equal(t, 2, stale[0].PRNumber)
	assert.Equal(t, 1, stale[1].PRNumber)

	assert.Equal(t, int64(10), stale[0].OrgID)
	assert.Equal(t, "T10", stale[0].TeamID)
	assert.Equal(t, "C10", stale[0].ChannelID)
	assert.Equal(t, "widgets", stale[0].RepoName)
}
