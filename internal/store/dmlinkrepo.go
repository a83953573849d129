package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DMLinkRepo stores which direct messages reference which GitHub comments.
type DMLinkRepo struct {
	db *DB
}

func NewDMLinkRepo(db *DB) *DMLinkRepo {
	return &DMLinkRepo{db: db}
}

func (r *DMLinkRepo) Insert(ctx context.Context, link *DMCommentLink) error {
	const query = `
		INSERT INTO dm_comment_links (
			channel_id, message_ts, comment_id, comment_type,
			repo_owner, repo_name, org_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, message_ts) DO NOTHING
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		link.ChannelID, link.MessageTS, link.CommentID, link.CommentType,
		link.RepoOwner, link.RepoName, link.OrgID,
	)
	if err != nil {
		return fmt.Errorf("insert dm comment link %s/%s: %w", link.ChannelID, link.MessageTS, err)
	}

	return nil
}

// Get returns (nil, nil) when the message does not reference a tracked
// comment. That is the common case, most reactions happen on untracked
// messages.
func (r *DMLinkRepo) Get(ctx context.Context, channelID, messageTS string) (*DMCommentLink, error) {
	const query = `
		SELECT channel_id, message_ts, comment_id, comment_type,
		       repo_owner, repo_name, org_id
		FROM dm_comment_links
		WHERE channel_id = ? AND message_ts = ?
	`

	var link DMCommentLink
	err := r.db.Reader.QueryRowContext(ctx, query, channelID, messageTS).Scan(
		&link.ChannelID, &link.MessageTS, &link.CommentID, &link.CommentType,
		&link.RepoOwner, &link.RepoName, &link.OrgID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dm comment link %s/%s: %w", channelID, messageTS, err)
	}

	return &link, nil
}
