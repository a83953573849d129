package store

import (
	"context"
	"database/sql"
	"fmt"
)

// BranchApprovalRepo caches the branch-protection approval requirement per
// (repository, branch). It is a pure cache, a missing row only means the
// requirement was not looked up successfully yet.
type BranchApprovalRepo struct {
	db *DB
}

func NewBranchApprovalRepo(db *DB) *BranchApprovalRepo {
	return &BranchApprovalRepo{db: db}
}

func (r *BranchApprovalRepo) Get(ctx context.Context, repoID int64, branch string) (int, bool, error) {
	const query = `
		SELECT required_approvals
		FROM branch_approval_requirements
		WHERE repo_id = ? AND branch = ?
	`

	var count int
	err := r.db.Reader.QueryRowContext(ctx, query, repoID, branch).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get approval requirement %d/%s: %w", repoID, branch, err)
	}

	return count, true, nil
}

func (r *BranchApprovalRepo) Put(ctx context.Context, repoID int64, branch string, count int) error {
	const query = `
		INSERT INTO branch_approval_requirements (repo_id, branch, required_approvals)
		VALUES (?, ?, ?)
		ON CONFLICT(repo_id, branch) DO UPDATE SET
			required_approvals = excluded.required_approvals
	`

	_, err := r.db.Writer.ExecContext(ctx, query, repoID, branch, count)
	if err != nil {
		return fmt.Errorf("put approval requirement %d/%s: %w", repoID, branch, err)
	}

	return nil
}
