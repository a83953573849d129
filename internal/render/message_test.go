package render

import (
	"encoding/json"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadrelay/threadrelay/internal/store"
)

func testView() *ThreadView {
	return &ThreadView{
		Title:           "add retry budget to uploader",
		URL:             "https://github.com/acme/widgets/pull/42",
		RepoName:        "widgets",
		OwnerAvatarURL:  "https://avatars.example.com/acme.png",
		AuthorAvatarURL: "https://avatars.example.com/octocat.png",
		BaseBranch:      "main",
		Additions:       120,
		Deletions:       18,
		Status:          store.ThreadStatusOpen,
	}
}

func intPtr(v int) *int { return &v }

func attachmentText(t *testing.T, a slack.Attachment) string {
	t.Helper()

	data, err := json.Marshal(a)
	require.NoError(t, err)
	return string(data)
}

func TestMainMessage_IsIdempotent(t *testing.T) {
	view := testView()
	view.Reviewers = []string{"jim", "sarah"}
	view.ApprovalCount = 1

	first := MainMessage("the body", "octocat", view, intPtr(2))
	second := MainMessage("the body", "octocat", view, intPtr(2))

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstJSON, secondJSON)
}

func TestMainMessage_AttachmentOrder(t *testing.T) {
	view := testView()
	view.Reviewers = []string{"jim"}
	view.QueuedToMerge = true

	attachments := MainMessage("", "octocat", view, intPtr(2))
	require.Len(t, attachments, 4)

	assert.Contains(t, attachmentText(t, attachments[0]), "add retry budget")
	assert.Contains(t, attachmentText(t, attachments[1]), "approvals met")
	assert.Contains(t, attachmentText(t, attachments[2]), "Awaiting review from jim")
	assert.Contains(t, attachmentText(t, attachments[3]), "Queued to merge")
}

func TestMainMessage_OmitsUnknownApprovalsAndEmptyReviewers(t *testing.T) {
	attachments := MainMessage("", "octocat", testView(), nil)
	require.Len(t, attachments, 1)
	assert.NotContains(t, attachmentText(t, attachments[0]), "approvals met")
}

func TestApprovalsAttachmentColors(t *testing.T) {
	pending := approvalsAttachment(1, 2)
	assert.Equal(t, "#35373B", pending.Color)
	assert.Contains(t, attachmentText(t, pending), "1/2 approvals met")

	satisfied := approvalsAttachment(2, 2)
	assert.Equal(t, "#03BB00", satisfied.Color)
	assert.Contains(t, attachmentText(t, satisfied), "2/2 approvals met")
}

func TestTerminalStatePriority(t *testing.T) {
	testcases := []struct {
		name     string
		mutate   func(*ThreadView)
		expected terminalState
	}{
		{
			name:     "open pr has no terminal attachment",
			mutate:   func(*ThreadView) {},
			expected: terminalNone,
		},
		{
			name: "draft wins over everything",
			mutate: func(v *ThreadView) {
				v.IsDraft = true
				v.Status = store.ThreadStatusMerged
				v.QueuedToMerge = true
			},
			expected: terminalDraft,
		},
		{
			name: "merged wins over queued",
			mutate: func(v *ThreadView) {
				v.Status = store.ThreadStatusMerged
				v.QueuedToMerge = true
			},
			expected: terminalMerged,
		},
		{
			name: "closed wins over stale queued flag",
			mutate: func(v *ThreadView) {
				v.Status = store.ThreadStatusClosed
				v.QueuedToMerge = true
			},
			expected: terminalClosed,
		},
		{
			name:     "queued alone",
			mutate:   func(v *ThreadView) { v.QueuedToMerge = true },
			expected: terminalQueued,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			view := testView()
			tc.mutate(view)
			assert.Equal(t, tc.expected, terminalStateOf(view))
		})
	}
}

func TestMainMessage_AtMostOneTerminalAttachment(t *testing.T) {
	view := testView()
	view.Status = store.ThreadStatusClosed
	view.QueuedToMerge = true

	attachments := MainMessage("", "octocat", view, nil)
	require.Len(t, attachments, 2)
	assert.Contains(t, attachmentText(t, attachments[1]), "Pull request closed")
	assert.NotContains(t, attachmentText(t, attachments[1]), "Queued")
}

func TestMainMessage_MergedAttachment(t *testing.T) {
	view := testView()
	view.Status = store.ThreadStatusMerged

	attachments := MainMessage("", "octocat", view, nil)
	require.Len(t, attachments, 2)
	assert.Contains(t, attachmentText(t, attachments[1]), "Pull request merged")
	assert.Equal(t, "#8250DF", attachments[1].Color)
}
