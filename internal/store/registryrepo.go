package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RegistryRepo resolves organizations, repositories and Slack destinations.
// The records themselves are managed by the dashboard, threadrelay only
// reads them when routing webhook events.
type RegistryRepo struct {
	db *DB
}

func NewRegistryRepo(db *DB) *RegistryRepo {
	return &RegistryRepo{db: db}
}

// RepositoryByID returns the repository with the given GitHub repository ID
// belonging to the given owner/organization ID, or (nil, nil) when it is not
// registered.
func (r *RegistryRepo) RepositoryByID(ctx context.Context, orgID, repoID int64) (*Repository, error) {
	const query = `
		SELECT id, org_id, owner, name, enabled
		FROM repositories
		WHERE org_id = ? AND id = ?
	`

	var (
		repo    Repository
		enabled int
	)
	err := r.db.Reader.QueryRowContext(ctx, query, orgID, repoID).
		Scan(&repo.ID, &repo.OrgID, &repo.Owner, &repo.Name, &enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %d: %w", repoID, err)
	}

	repo.Enabled = enabled != 0
	return &repo, nil
}

// OrganizationByID returns (nil, nil) when the organization is unknown.
func (r *RegistryRepo) OrganizationByID(ctx context.Context, orgID int64) (*Organization, error) {
	const query = `
		SELECT id, login, avatar_url, subscription_status
		FROM organizations
		WHERE id = ?
	`

	var org Organization
	err := r.db.Reader.QueryRowContext(ctx, query, orgID).
		Scan(&org.ID, &org.Login, &org.AvatarURL, &org.SubscriptionStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %d: %w", orgID, err)
	}

	return &org, nil
}

// DestinationByOrg returns the Slack destination of an organization or
// (nil, nil) when none is configured.
func (r *RegistryRepo) DestinationByOrg(ctx context.Context, orgID int64) (*Destination, error) {
	const query = `
		SELECT org_id, channel_id, access_token, team_id
		FROM slack_destinations
		WHERE org_id = ?
	`

	var dest Destination
	err := r.db.Reader.QueryRowContext(ctx, query, orgID).
		Scan(&dest.OrgID, &dest.ChannelID, &dest.AccessToken, &dest.TeamID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slack destination for organization %d: %w", orgID, err)
	}

	return &dest, nil
}

func (r *RegistryRepo) UpsertOrganization(ctx context.Context, org *Organization) error {
	const query = `
		INSERT INTO organizations (id, login, avatar_url, subscription_status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			login = excluded.login,
			avatar_url = excluded.avatar_url,
			subscription_status = excluded.subscription_status
	`

	_, err := r.db.Writer.ExecContext(ctx, query, org.ID, org.Login, org.AvatarURL, org.SubscriptionStatus)
	if err != nil {
		return fmt.Errorf("upsert organization %d: %w", org.ID, err)
	}

	return nil
}

func (r *RegistryRepo) UpsertRepository(ctx context.Context, repo *Repository) error {
	const query = `
		INSERT INTO repositories (id, org_id, owner, name, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			org_id = excluded.org_id,
			owner = excluded.owner,
			name = excluded.name,
			enabled = excluded.enabled
	`

	_, err := r.db.Writer.ExecContext(ctx, query, repo.ID, repo.OrgID, repo.Owner, repo.Name, boolToInt(repo.Enabled))
	if err != nil {
		return fmt.Errorf("upsert repository %d: %w", repo.ID, err)
	}

	return nil
}

func (r *RegistryRepo) UpsertDestination(ctx context.Context, dest *Destination) error {
	const query = `
		INSERT INTO slack_destinations (org_id, channel_id, access_token, team_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(org_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			access_token = excluded.access_token,
			team_id = excluded.team_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query, dest.OrgID, dest.ChannelID, dest.AccessToken, dest.TeamID)
	if err != nil {
		return fmt.Errorf("upsert slack destination for organization %d: %w", dest.OrgID, err)
	}

	return nil
}
