// Package slackclt provides a Slack Web API client.
package slackclt

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "slack_client"

// New returns a client for one workspace access token.
// Tokens are per Slack destination, the dispatcher creates a client per
// resolved destination.
func New(token string) *Client {
	api := slack.New(
		token,
		slack.OptionHTTPClient(&http.Client{Timeout: DefaultHTTPClientTimeout}),
	)

	return &Client{
		api:    api,
		logger: zap.L().Named(loggerName),
	}
}

type Client struct {
	api    *slack.Client
	logger *zap.Logger
}

// PostMessage posts a new channel message and returns its timestamp.
func (clt *Client) PostMessage(ctx context.Context, channelID, text string, attachments []slack.Attachment) (string, error) {
	_, ts, err := clt.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(attachments...),
	)
	if err != nil {
		return "", fmt.Errorf("posting message to channel %s failed: %w", channelID, err)
	}

	return ts, nil
}

// UpdateMessage replaces text and attachments of an existing message.
// The attachment list must always be complete, chat.update deletes
// attachments that are missing from the update.
func (clt *Client) UpdateMessage(ctx context.Context, channelID, ts, text string, attachments []slack.Attachment) error {
	_, _, _, err := clt.api.UpdateMessageContext(ctx, channelID, ts,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(attachments...),
	)
	if err != nil {
		return fmt.Errorf("updating message %s in channel %s failed: %w", ts, channelID, err)
	}

	return nil
}

// PostThreadReply posts a reply into the thread of the message with
// timestamp threadTS.
func (clt *Client) PostThreadReply(ctx context.Context, channelID, threadTS, text string) (string, error) {
	_, ts, err := clt.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return "", fmt.Errorf("posting thread reply to %s/%s failed: %w", channelID, threadTS, err)
	}

	return ts, nil
}

// PostDM opens (or reuses) the direct-message conversation with a user and
// posts a message. The DM channel ID and message timestamp are returned so
// callers can link the message to external objects.
func (clt *Client) PostDM(ctx context.Context, userID, text string) (channelID, ts string, err error) {
	channel, _, _, err := clt.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return "", "", fmt.Errorf("opening dm conversation with %s failed: %w", userID, err)
	}

	_, ts, err = clt.api.PostMessageContext(ctx, channel.ID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", "", fmt.Errorf("posting dm to %s failed: %w", userID, err)
	}

	return channel.ID, ts, nil
}

// PostBlocks posts a message that consists of blocks plus attachments, used
// for the reminder digest.
func (clt *Client) PostBlocks(ctx context.Context, channelID, fallbackText string, blocks []slack.Block, attachments []slack.Attachment) (string, error) {
	_, ts, err := clt.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(fallbackText, false),
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionAttachments(attachments...),
	)
	if err != nil {
		return "", fmt.Errorf("posting digest to channel %s failed: %w", channelID, err)
	}

	return ts, nil
}
