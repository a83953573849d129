// Package slack receives Slack Events API callbacks via HTTP and forwards
// reaction events to the reaction sync.
package slack

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
)

const loggerName = "slack-event-provider"

// Provider validates Slack Events API requests with the app's signing
// secret, answers URL verification challenges and forwards reaction_added
// events to the event channel. All other event types are ignored.
type Provider struct {
	logger        *zap.Logger
	signingSecret string
	ch            chan<- *ReactionEvent
}

func New(eventChan chan<- *ReactionEvent, signingSecret string) *Provider {
	return &Provider{
		logger:        zap.L().Named(loggerName),
		signingSecret: signingSecret,
		ch:            eventChan,
	}
}

func (p *Provider) HTTPHandler(resp http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(resp, err.Error(), http.StatusBadRequest)
		return
	}

	verifier, err := slack.NewSecretsVerifier(req.Header, p.signingSecret)
	if err != nil {
		p.logger.Info(
			"received invalid http request, creating signature verifier failed",
			logfields.Event("slack_http_request_validation_failed"),
			zap.Error(err),
		)
		http.Error(resp, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := verifier.Write(body); err != nil {
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := verifier.Ensure(); err != nil {
		p.logger.Info(
			"received invalid http request, signature validation failed",
			logfields.Event("slack_http_request_validation_failed"),
			zap.Error(err),
		)
		http.Error(resp, err.Error(), http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		p.logger.Info(
			"received invalid http request, parsing event failed",
			logfields.Event("slack_event_parsing_failed"),
			zap.Error(err),
		)
		http.Error(resp, err.Error(), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(resp, err.Error(), http.StatusBadRequest)
			return
		}

		resp.Header().Set("Content-Type", "text/plain")
		_, _ = resp.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		p.handleCallbackEvent(resp, &event)

	default:
		p.logger.Debug(
			"ignoring event, event type is unsupported",
			logfields.Event("slack_unsupported_event_received"),
			zap.String("slack.event_type", event.Type),
		)
	}
}

func (p *Provider) handleCallbackEvent(resp http.ResponseWriter, event *slackevents.EventsAPIEvent) {
	reaction, ok := event.InnerEvent.Data.(*slackevents.ReactionAddedEvent)
	if !ok {
		p.logger.Debug(
			"ignoring event, inner event type is unsupported",
			logfields.Event("slack_unsupported_event_received"),
			zap.String("slack.inner_event_type", event.InnerEvent.Type),
		)
		return
	}

	logFields := []zap.Field{
		logfields.EventProvider("slack"),
		logfields.Channel(reaction.Item.Channel),
		logfields.SlackUser(reaction.User),
		zap.String("slack.reaction", reaction.Reaction),
	}

	ev := ReactionEvent{
		ChannelID: reaction.Item.Channel,
		MessageTS: reaction.Item.Timestamp,
		UserID:    reaction.User,
		Emoji:     reaction.Reaction,
		LogFields: logFields,
	}

	select {
	case p.ch <- &ev:
		p.logger.Debug("reaction event forwarded to channel",
			logfields.Event("slack_event_forwarded"),
		)

	default:
		p.logger.Warn(
			"event lost, forwarding reaction event to channel failed",
			logfields.Event("slack_forwarding_event_failed"),
		)

		http.Error(resp, "queue full", http.StatusServiceUnavailable)
	}
}
