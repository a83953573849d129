package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	"github.com/threadrelay/threadrelay/internal/store"
)

// ApprovalsCache resolves how many approving reviews a branch requires.
// Results are cached per repository and branch without expiry, the
// requirement changes rarely. Lookups that are denied by branch permissions
// return an unknown requirement and are never cached, the next lookup asks
// the API again.
type ApprovalsCache struct {
	cache  *store.BranchApprovalRepo
	gh     GithubClient
	logger *zap.Logger
}

func NewApprovalsCache(cache *store.BranchApprovalRepo, gh GithubClient) *ApprovalsCache {
	return &ApprovalsCache{
		cache:  cache,
		gh:     gh,
		logger: zap.L().Named("approvals-cache"),
	}
}

// RequiredApprovals returns the approval requirement of a branch, nil when
// it is unknown.
func (c *ApprovalsCache) RequiredApprovals(ctx context.Context, repo *store.Repository, branch string) (*int, error) {
	count, found, err := c.cache.Get(ctx, repo.ID, branch)
	if err != nil {
		return nil, fmt.Errorf("reading cached approval requirement failed: %w", err)
	}

	if found {
		return &count, nil
	}

	count, known, err := c.gh.RequiredApprovals(ctx, repo.Owner, repo.Name, branch)
	if err != nil {
		return nil, err
	}

	if !known {
		return nil, nil
	}

	if err := c.cache.Put(ctx, repo.ID, branch, count); err != nil {
		return nil, fmt.Errorf("caching approval requirement failed: %w", err)
	}

	c.logger.Debug(
		"approval requirement cached",
		logfields.Event("approval_requirement_cached"),
		logfields.RepositoryID(repo.ID),
		logfields.BaseBranch(branch),
		zap.Int("github.required_approvals", count),
	)

	return &count, nil
}
