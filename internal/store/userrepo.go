package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UserRepo stores the Slack to GitHub account links.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// BySlackID returns (nil, nil) when the Slack user has no linked GitHub
// account.
func (r *UserRepo) BySlackID(ctx context.Context, slackUserID string) (*LinkedUser, error) {
	const query = `
		SELECT slack_user_id, github_login, github_token
		FROM linked_users
		WHERE slack_user_id = ?
	`

	var u LinkedUser
	err := r.db.Reader.QueryRowContext(ctx, query, slackUserID).
		Scan(&u.SlackUserID, &u.GithubLogin, &u.GithubToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get linked user %q: %w", slackUserID, err)
	}

	return &u, nil
}

// ByGithubLogin returns (nil, nil) when no Slack user is linked to the GitHub
// login.
func (r *UserRepo) ByGithubLogin(ctx context.Context, githubLogin string) (*LinkedUser, error) {
	const query = `
		SELECT slack_user_id, github_login, github_token
		FROM linked_users
		WHERE github_login = ?
	`

	var u LinkedUser
	err := r.db.Reader.QueryRowContext(ctx, query, githubLogin).
		Scan(&u.SlackUserID, &u.GithubLogin, &u.GithubToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get linked user for github login %q: %w", githubLogin, err)
	}

	return &u, nil
}

func (r *UserRepo) Upsert(ctx context.Context, u *LinkedUser) error {
	const query = `
		INSERT INTO linked_users (slack_user_id, github_login, github_token)
		VALUES (?, ?, ?)
		ON CONFLICT(slack_user_id) DO UPDATE SET
			github_login = excluded.github_login,
			github_token = excluded.github_token
	`

	_, err := r.db.Writer.ExecContext(ctx, query, u.SlackUserID, u.GithubLogin, u.GithubToken)
	if err != nil {
		return fmt.Errorf("upsert linked user %q: %w", u.SlackUserID, err)
	}

	return nil
}
