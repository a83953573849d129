package relay

// EventKind enumerates the github webhook event types the dispatcher
// handles. Every other webhook type maps to EventKindUnsupported and is
// dropped.
type EventKind int

const (
	EventKindUnsupported EventKind = iota
	EventKindPullRequest
	EventKindPullRequestReview
	EventKindPullRequestReviewComment
	EventKindIssueComment
	EventKindCheckRun
	EventKindCheckSuite
)

// ParseEventKind maps a github webhook type string, as returned by
// github.WebHookType(), to its EventKind.
func ParseEventKind(webhookType string) EventKind {
	switch webhookType {
	case "pull_request":
		return EventKindPullRequest
	case "pull_request_review":
		return EventKindPullRequestReview
	case "pull_request_review_comment":
		return EventKindPullRequestReviewComment
	case "issue_comment":
		return EventKindIssueComment
	case "check_run":
		return EventKindCheckRun
	case "check_suite":
		return EventKindCheckSuite
	default:
		return EventKindUnsupported
	}
}

func (k EventKind) String() string {
	switch k {
	case EventKindPullRequest:
		return "pull_request"
	case EventKindPullRequestReview:
		return "pull_request_review"
	case EventKindPullRequestReviewComment:
		return "pull_request_review_comment"
	case EventKindIssueComment:
		return "issue_comment"
	case EventKindCheckRun:
		return "check_run"
	case EventKindCheckSuite:
		return "check_suite"
	default:
		return "unsupported"
	}
}
