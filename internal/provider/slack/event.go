package slack

import "go.uber.org/zap"

// ReactionEvent is a preprocessed Slack reaction_added event.
type ReactionEvent struct {
	ChannelID string
	MessageTS string
	UserID    string
	// Emoji is the Slack emoji name without colons, e.g. "thumbsup".
	Emoji     string
	LogFields []zap.Field
}
