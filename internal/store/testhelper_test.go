package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"
)

// setupTestDB creates a named shared in-memory sqlite database. Writer and
// reader share the same database via cache=shared, the name is derived from
// t.Name() to isolate parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	safeName := url.PathEscape(t.Name())
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func addTestOrg(t *testing.T, db *DB, orgID int64, status string) {
	t.Helper()

	reg := NewRegistryRepo(db)
	org := &Organization{
		ID:                 orgID,
		Login:              fmt.Sprintf("org-%d", orgID),
		AvatarURL:          "https://avatars.example.com/org.png",
		SubscriptionStatus: status,
	}
	if err := reg.UpsertOrganization(context.Background(), org); err != nil {
		t.Fatalf("upsert organization: %v", err)
	}
}

func addTestRepo(t *testing.T, db *DB, orgID, repoID int64, name string) {
	t.Helper()

	reg := NewRegistryRepo(db)
	repo := &Repository{
		ID:      repoID,
		OrgID:   orgID,
		Owner:   fmt.Sprintf("org-%d", orgID),
		Name:    name,
		Enabled: true,
	}
	if err := reg.UpsertRepository(context.Background(), repo); err != nil {
		t.Fatalf("upsert repository: %v", err)
	}
}

func addTestDestination(t *testing.T, db *DB, orgID int64, teamID string) {
	t.Helper()

	reg := NewRegistryRepo(db)
	dest := &Destination{
		OrgID:       orgID,
		ChannelID:   fmt.Sprintf("C%d", orgID),
		AccessToken: "xoxb-test",
		TeamID:      teamID,
	}
	if err := reg.UpsertDestination(context.Background(), dest); err != nil {
		t.Fatalf("upsert destination: %v", err)
	}
}

func makeThread(repoID int64, prNumber int, createdAt time.Time) *Thread {
	return &Thread{
		RepoID:          repoID,
		PRNumber:        prNumber,
		Title:           "add feature",
		Body:            "body",
		URL:             fmt.Sprintf("https://github.com/acme/widgets/pull/%d", prNumber),
		AuthorLogin:     "octocat",
		AuthorAvatarURL: "https://avatars.example.com/octocat.png",
		BaseBranch:      "main",
		Additions:       10,
		Deletions:       2,
		Status:          ThreadStatusOpen,
		CreatedAt:       createdAt,
	}
}
