package store

import "time"

type ThreadStatus string

const (
	ThreadStatusOpen   ThreadStatus = "open"
	ThreadStatusMerged ThreadStatus = "merged"
	ThreadStatusClosed ThreadStatus = "closed"
)

// Thread is the persisted state of the Slack thread that mirrors one pull
// request.
// ThreadTS is empty until the main message was posted. Once set it never
// changes, the main message is edited in place and never replaced.
type Thread struct {
	RepoID   int64
	PRNumber int
	ThreadTS string

	Title           string
	Body            string
	URL             string
	AuthorLogin     string
	AuthorAvatarURL string
	BaseBranch      string
	Additions       int
	Deletions       int

	IsDraft           bool
	Status            ThreadStatus
	RequiredApprovals *int
	ApprovalCount     int
	QueuedToMerge     bool
	Reviewers         []string

	CreatedAt time.Time
}

type Organization struct {
	ID                 int64
	Login              string
	AvatarURL          string
	SubscriptionStatus string
}

type Repository struct {
	ID      int64
	OrgID   int64
	Owner   string
	Name    string
	Enabled bool
}

// Destination is the Slack channel that receives all messages for an
// organization.
type Destination struct {
	OrgID       int64
	ChannelID   string
	AccessToken string
	TeamID      string
}

// LinkedUser connects a Slack account with a GitHub account.
// GithubToken is empty when the user did not authorize API access.
type LinkedUser struct {
	SlackUserID string
	GithubLogin string
	GithubToken string
}

type BillingStatus struct {
	OrgID               int64
	PastDueStartedAt    time.Time
	LastWarningSentAt   *time.Time
	ServicePausedSentAt *time.Time
}

// DMCommentLink connects a direct message that references a GitHub comment
// with the comment itself. It is consumed by the reaction sync.
type DMCommentLink struct {
	ChannelID   string
	MessageTS   string
	CommentID   int64
	CommentType string
	RepoOwner   string
	RepoName    string
	OrgID       int64
}

const (
	CommentTypeIssue  = "issue"
	CommentTypeReview = "review"
)

// StalePullRequest is a reminder candidate joined with its repository,
// organization and Slack destination.
type StalePullRequest struct {
	Thread

	RepoOwner    string
	RepoName     string
	OrgID        int64
	OrgLogin     string
	OrgAvatarURL string
	ChannelID    string
	AccessToken  string
	TeamID       string
}
