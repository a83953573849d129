package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ThreadRepo persists the pull-request to Slack-thread mapping.
type ThreadRepo struct {
	db *DB
}

func NewThreadRepo(db *DB) *ThreadRepo {
	return &ThreadRepo{db: db}
}

// Upsert inserts or updates a thread record.
// The thread timestamp is write-once: when a row already has a non-null
// thread_ts the stored value wins so the main message can never be replaced
// by a second one.
func (r *ThreadRepo) Upsert(ctx context.Context, th *Thread) error {
	const query = `
		INSERT INTO pr_threads (
			repo_id, pr_number, thread_ts, title, body, url,
			author_login, author_avatar_url, base_branch, additions, deletions,
			is_draft, status, required_approvals, approval_count,
			queued_to_merge, reviewers, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, pr_number) DO UPDATE SET
			thread_ts = COALESCE(pr_threads.thread_ts, excluded.thread_ts),
			title = excluded.title,
			body = excluded.body,
			url = excluded.url,
			author_login = excluded.author_login,
			author_avatar_url = excluded.author_avatar_url,
			base_branch = excluded.base_branch,
			additions = excluded.additions,
			deletions = excluded.deletions,
			is_draft = excluded.is_draft,
			status = excluded.status,
			required_approvals = excluded.required_approvals,
			approval_count = excluded.approval_count,
			queued_to_merge = excluded.queued_to_merge,
			reviewers = excluded.reviewers
	`

	reviewers := th.Reviewers
	if reviewers == nil {
		reviewers = []string{}
	}
	reviewersJSON, err := json.Marshal(reviewers)
	if err != nil {
		return fmt.Errorf("marshal reviewers: %w", err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		th.RepoID, th.PRNumber, nullStr(th.ThreadTS), th.Title, th.Body, th.URL,
		th.AuthorLogin, th.AuthorAvatarURL, th.BaseBranch, th.Additions, th.Deletions,
		boolToInt(th.IsDraft), string(th.Status), nullIntPtr(th.RequiredApprovals),
		th.ApprovalCount, boolToInt(th.QueuedToMerge), string(reviewersJSON),
		th.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert thread %d#%d: %w", th.RepoID, th.PRNumber, err)
	}

	return nil
}

// Get returns the thread record for a pull request.
// (nil, nil) is returned when no record exists.
func (r *ThreadRepo) Get(ctx context.Context, repoID int64, prNumber int) (*Thread, error) {
	const query = `
		SELECT repo_id, pr_number, thread_ts, title, body, url,
		       author_login, author_avatar_url, base_branch, additions, deletions,
		       is_draft, status, required_approvals, approval_count,
		       queued_to_merge, reviewers, created_at
		FROM pr_threads
		WHERE repo_id = ? AND pr_number = ?
	`

	th, err := scanThread(r.db.Reader.QueryRowContext(ctx, query, repoID, prNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get thread %d#%d: %w", repoID, prNumber, err)
	}

	return th, nil
}

// ListStale returns open, non-draft, threaded pull requests created before
// cutoff that still miss approvals, joined with their repository,
// organization and Slack destination. Results are ordered oldest first.
// Pull requests in disabled repositories and pull requests with an unknown
// approval requirement are excluded.
func (r *ThreadRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*StalePullRequest, error) {
	const query = `
		SELECT t.repo_id, t.pr_number, t.thread_ts, t.title, t.body, t.url,
		       t.author_login, t.author_avatar_url, t.base_branch, t.additions, t.deletions,
		       t.is_draft, t.status, t.required_approvals, t.approval_count,
		       t.queued_to_merge, t.reviewers, t.created_at,
		       r.owner, r.name,
		       o.id, o.login, o.avatar_url,
		       d.channel_id, d.access_token, d.team_id
		FROM pr_threads t
		JOIN repositories r ON r.id = t.repo_id
		JOIN organizations o ON o.id = r.org_id
		JOIN slack_destinations d ON d.org_id = o.id
		WHERE t.status = 'open'
		  AND t.is_draft = 0
		  AND t.thread_ts IS NOT NULL
		  AND t.created_at < ?
		  AND t.required_approvals IS NOT NULL
		  AND t.approval_count < t.required_approvals
		  AND r.enabled = 1
		ORDER BY t.created_at ASC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("list stale pull requests: %w", err)
	}
	defer rows.Close()

	var result []*StalePullRequest
	for rows.Next() {
		var (
			sp            StalePullRequest
			ts            sql.NullString
			reqApprovals  sql.NullInt64
			isDraft       int
			queuedToMerge int
			status        string
			reviewersJSON string
		)

		err := rows.Scan(
			&sp.RepoID, &sp.PRNumber, &ts, &sp.Title, &sp.Body, &sp.URL,
			&sp.AuthorLogin, &sp.AuthorAvatarURL, &sp.BaseBranch, &sp.Additions, &sp.Deletions,
			&isDraft, &status, &reqApprovals, &sp.ApprovalCount,
			&queuedToMerge, &reviewersJSON, &sp.CreatedAt,
			&sp.RepoOwner, &sp.RepoName,
			&sp.OrgID, &sp.OrgLogin, &sp.OrgAvatarURL,
			&sp.ChannelID, &sp.AccessToken, &sp.TeamID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stale pull request: %w", err)
		}

		sp.ThreadTS = ts.String
		sp.IsDraft = isDraft != 0
		sp.QueuedToMerge = queuedToMerge != 0
		sp.Status = ThreadStatus(status)
		if reqApprovals.Valid {
			v := int(reqApprovals.Int64)
			sp.RequiredApprovals = &v
		}
		if err := json.Unmarshal([]byte(reviewersJSON), &sp.Reviewers); err != nil {
			return nil, fmt.Errorf("unmarshal reviewers: %w", err)
		}

		result = append(result, &sp)
	}

	return result, rows.Err()
}

func scanThread(row *sql.Row) (*Thread, error) {
	var (
		th            Thread
		ts            sql.NullString
		reqApprovals  sql.NullInt64
		isDraft       int
		queuedToMerge int
		status        string
		reviewersJSON string
	)

	err := row.Scan(
		&th.RepoID, &th.PRNumber, &ts, &th.Title, &th.Body, &th.URL,
		&th.AuthorLogin, &th.AuthorAvatarURL, &th.BaseBranch, &th.Additions, &th.Deletions,
		&isDraft, &status, &reqApprovals, &th.ApprovalCount,
		&queuedToMerge, &reviewersJSON, &th.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	th.ThreadTS = ts.String
	th.IsDraft = isDraft != 0
	th.QueuedToMerge = queuedToMerge != 0
	th.Status = ThreadStatus(status)
	if reqApprovals.Valid {
		v := int(reqApprovals.Int64)
		th.RequiredApprovals = &v
	}
	if err := json.Unmarshal([]byte(reviewersJSON), &th.Reviewers); err != nil {
		return nil, fmt.Errorf("unmarshal reviewers: %w", err)
	}

	return &th, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
