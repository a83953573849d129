// Package render builds the Slack messages of threadrelay.
// All functions are pure: the same input always produces the identical
// message. The main-message attachment list is always rebuilt completely
// because chat.update discards every attachment that is omitted from the
// update, partial updates would silently delete previously shown state.
package render

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/threadrelay/threadrelay/internal/store"
)

const (
	colorNeutral  = "#35373B"
	colorApproved = "#03BB00"
	colorDraft    = "#6E7781"
	colorMerged   = "#8250DF"
	colorClosed   = "#CF222E"
	colorQueued   = "#BF8700"
)

// ThreadView is the render input describing the current state of one pull
// request thread.
type ThreadView struct {
	Title           string
	URL             string
	RepoName        string
	OwnerAvatarURL  string
	AuthorAvatarURL string
	BaseBranch      string
	Additions       int
	Deletions       int

	IsDraft       bool
	Status        store.ThreadStatus
	QueuedToMerge bool
	ApprovalCount int
	Reviewers     []string
}

// MainMessage builds the full, ordered attachment list of a pull request's
// main message.
// Order is fixed: base, approvals (only when the requirement is known),
// requested reviewers (only when non-empty), and at most one terminal status
// attachment.
// body must already be converted with Body(). slackUsername is the display
// name shown for the author, requiredApprovals is nil when the requirement
// could not be determined.
func MainMessage(body, slackUsername string, view *ThreadView, requiredApprovals *int) []slack.Attachment {
	attachments := []slack.Attachment{baseAttachment(body, slackUsername, view)}

	if requiredApprovals != nil {
		attachments = append(attachments, approvalsAttachment(view.ApprovalCount, *requiredApprovals))
	}

	if len(view.Reviewers) > 0 {
		attachments = append(attachments, reviewersAttachment(view.Reviewers))
	}

	if a, ok := terminalAttachment(view); ok {
		attachments = append(attachments, a)
	}

	return attachments
}

func baseAttachment(body, slackUsername string, view *ThreadView) slack.Attachment {
	title := slack.NewTextBlockObject(
		slack.MarkdownType,
		fmt.Sprintf("*%s*", escapeText(view.Title)),
		false, false,
	)

	button := slack.NewButtonBlockElement(
		"open_pull_request",
		view.URL,
		slack.NewTextBlockObject(slack.PlainTextType, "View pull request", false, false),
	)
	button.URL = view.URL

	blocks := []slack.Block{
		slack.NewSectionBlock(title, nil, slack.NewAccessory(button)),
	}

	if body != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, body, false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, contextLine(slackUsername, view))

	return slack.Attachment{
		Color:  colorNeutral,
		Blocks: slack.Blocks{BlockSet: blocks},
	}
}

func contextLine(slackUsername string, view *ThreadView) *slack.ContextBlock {
	return slack.NewContextBlock("",
		slack.NewImageBlockElement(view.OwnerAvatarURL, view.RepoName),
		slack.NewTextBlockObject(slack.MarkdownType, escapeText(view.RepoName), false, false),
		slack.NewImageBlockElement(view.AuthorAvatarURL, slackUsername),
		slack.NewTextBlockObject(slack.MarkdownType, escapeText(slackUsername), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, diffStat(view.Additions, view.Deletions), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("`%s`", escapeText(view.BaseBranch)), false, false),
	)
}

func diffStat(additions, deletions int) string {
	return fmt.Sprintf("+%d −%d", additions, deletions)
}

func approvalsAttachment(count, required int) slack.Attachment {
	color := colorNeutral
	if count >= required {
		color = colorApproved
	}

	return textAttachment(color, fmt.Sprintf("%d/%d approvals met", count, required))
}

func reviewersAttachment(reviewers []string) slack.Attachment {
	return textAttachment(
		colorNeutral,
		fmt.Sprintf("Awaiting review from %s", escapeText(strings.Join(reviewers, ", "))),
	)
}

type terminalState int

const (
	terminalNone terminalState = iota
	terminalDraft
	terminalMerged
	terminalClosed
	terminalQueued
)

// terminalStateOf returns which terminal status attachment is shown.
// The priority order draft > merged > closed > queued is an invariant: a
// closed pull request may still carry a stale queued flag, closed must win.
func terminalStateOf(view *ThreadView) terminalState {
	switch {
	case view.IsDraft:
		return terminalDraft
	case view.Status == store.ThreadStatusMerged:
		return terminalMerged
	case view.Status == store.ThreadStatusClosed:
		return terminalClosed
	case view.QueuedToMerge:
		return terminalQueued
	default:
		return terminalNone
	}
}

func terminalAttachment(view *ThreadView) (slack.Attachment, bool) {
	switch terminalStateOf(view) {
	case terminalDraft:
		return textAttachment(colorDraft, "This pull request is a draft"), true
	case terminalMerged:
		return textAttachment(colorMerged, "Pull request merged"), true
	case terminalClosed:
		return textAttachment(colorClosed, "Pull request closed"), true
	case terminalQueued:
		return textAttachment(colorQueued, "Queued to merge"), true
	default:
		return slack.Attachment{}, false
	}
}

func textAttachment(color, text string) slack.Attachment {
	return slack.Attachment{
		Color: color,
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
					nil, nil,
				),
			},
		},
	}
}
