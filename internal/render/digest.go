package render

import (
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/threadrelay/threadrelay/internal/store"
)

// ReminderHeader is the single header block of a reminder digest.
func ReminderHeader(count int) []slack.Block {
	noun := "pull requests are"
	if count == 1 {
		noun = "pull request is"
	}

	return []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(
				slack.PlainTextType,
				fmt.Sprintf("%d %s waiting for review", count, noun),
				false, false,
			),
		),
	}
}

// ReminderAttachments builds one attachment per stale pull request, in the
// order the pull requests are passed in.
func ReminderAttachments(prs []*store.StalePullRequest, now time.Time) []slack.Attachment {
	attachments := make([]slack.Attachment, 0, len(prs))

	for _, pr := range prs {
		attachments = append(attachments, reminderAttachment(pr, now))
	}

	return attachments
}

func reminderAttachment(pr *store.StalePullRequest, now time.Time) slack.Attachment {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("*<%s|%s #%d: %s>*", pr.URL, escapeText(pr.RepoName), pr.PRNumber, escapeText(pr.Title)),
			false, false,
		),
		nil, nil,
	)

	context := slack.NewContextBlock("",
		slack.NewImageBlockElement(pr.OrgAvatarURL, pr.OrgLogin),
		slack.NewTextBlockObject(slack.MarkdownType, escapeText(pr.RepoName), false, false),
		slack.NewImageBlockElement(pr.AuthorAvatarURL, pr.AuthorLogin),
		slack.NewTextBlockObject(slack.MarkdownType, escapeText(pr.AuthorLogin), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, diffStat(pr.Additions, pr.Deletions), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("`%s`", escapeText(pr.BaseBranch)), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("opened %s ago", formatAge(pr.CreatedAt, now)), false, false),
	)

	return slack.Attachment{
		Color:  colorNeutral,
		Blocks: slack.Blocks{BlockSet: []slack.Block{section, context}},
	}
}

// formatAge renders an age in whole hours below one day and in whole days
// afterwards.
func formatAge(createdAt, now time.Time) string {
	hours := int(now.Sub(createdAt).Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	return fmt.Sprintf("%dd", hours/24)
}
