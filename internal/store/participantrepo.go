package store

import (
	"context"
	"fmt"
)

// ParticipantRepo tracks the distinct commenters per discussion.
// reviewThreadID is 0 for the pull-request level discussion and the ID of the
// root review comment for inline review threads.
type ParticipantRepo struct {
	db *DB
}

func NewParticipantRepo(db *DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Add records a commenter and reports whether the login was seen for the
// first time in this discussion.
func (r *ParticipantRepo) Add(ctx context.Context, repoID int64, prNumber int, reviewThreadID int64, login string) (bool, error) {
	const query = `
		INSERT INTO comment_participants (repo_id, pr_number, review_thread_id, login)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repo_id, pr_number, review_thread_id, login) DO NOTHING
	`

	res, err := r.db.Writer.ExecContext(ctx, query, repoID, prNumber, reviewThreadID, login)
	if err != nil {
		return false, fmt.Errorf("add participant %q: %w", login, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add participant %q: %w", login, err)
	}

	return n > 0, nil
}

// List returns the distinct participants of a discussion in insertion-stable
// order.
func (r *ParticipantRepo) List(ctx context.Context, repoID int64, prNumber int, reviewThreadID int64) ([]string, error) {
	const query = `
		SELECT login
		FROM comment_participants
		WHERE repo_id = ? AND pr_number = ? AND review_thread_id = ?
		ORDER BY rowid
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repoID, prNumber, reviewThreadID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		logins = append(logins, login)
	}

	return logins, rows.Err()
}
