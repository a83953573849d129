// Package reaction mirrors Slack reactions on comment notification DMs back
// to the referenced github comments.
package reaction

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/threadrelay/threadrelay/internal/logfields"
	slackprov "github.com/threadrelay/threadrelay/internal/provider/slack"
	"github.com/threadrelay/threadrelay/internal/store"
)

const DefEventChannelBufferSize = 128

const loggerName = "reaction-sync"

// githubReactions maps Slack emoji names to the reaction content values of
// the github reactions API. Emojis without a github counterpart are ignored.
var githubReactions = map[string]string{
	"+1":         "+1",
	"thumbsup":   "+1",
	"-1":         "-1",
	"thumbsdown": "-1",
	"laughing":   "laugh",
	"smile":      "laugh",
	"joy":        "laugh",
	"confused":   "confused",
	"heart":      "heart",
	"tada":       "hooray",
	"hooray":     "hooray",
	"rocket":     "rocket",
	"eyes":       "eyes",
}

// GithubClient applies reactions on behalf of one user token.
type GithubClient interface {
	CreateCommentReaction(ctx context.Context, owner, repo, commentType string, commentID int64, content string) error
}

type GithubClientFactory func(apiToken string) GithubClient

// Sync consumes Slack reaction events and applies the matching github
// reaction to the comment the reacted DM refers to.
// Reactions on untracked messages are silently ignored, most reactions in a
// workspace have nothing to do with threadrelay.
type Sync struct {
	ch            chan *slackprov.ReactionEvent
	logger        *zap.Logger
	dmLinks       *store.DMLinkRepo
	users         *store.UserRepo
	githubFactory GithubClientFactory

	wg           sync.WaitGroup
	eventDeferFn func()
}

// WithEventRoutineDeferFunc sets a function that is deferred in the event
// processing go-routine. It can be used to install a panic handler.
func WithEventRoutineDeferFunc(fn func()) func(*Sync) {
	return func(s *Sync) {
		s.eventDeferFn = fn
	}
}

func New(db *store.DB, githubFactory GithubClientFactory, opts ...func(*Sync)) *Sync {
	s := Sync{
		ch:            make(chan *slackprov.ReactionEvent, DefEventChannelBufferSize),
		logger:        zap.L().Named(loggerName),
		dmLinks:       store.NewDMLinkRepo(db),
		users:         store.NewUserRepo(db),
		githubFactory: githubFactory,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// C returns the event channel.
func (s *Sync) C() chan<- *slackprov.ReactionEvent {
	return s.ch
}

func (s *Sync) Start() {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		if s.eventDeferFn != nil {
			defer s.eventDeferFn()
		}

		s.logger.Info("ready to process reaction events", logfields.Event("reaction_sync_started"))

		for ev := range s.ch {
			s.Process(context.Background(), ev)
		}
	}()
}

func (s *Sync) Stop() {
	close(s.ch)
	s.wg.Wait()
	s.logger.Debug("terminated")
}

// Process applies a single reaction event. Failures are logged and never
// retried, a missed reaction is cosmetic.
func (s *Sync) Process(ctx context.Context, ev *slackprov.ReactionEvent) {
	logger := s.logger.With(ev.LogFields...)

	link, err := s.dmLinks.Get(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		logger.Error(
			"looking up comment link failed",
			logfields.Event("comment_link_read_failed"),
			zap.Error(err),
		)
		return
	}

	if link == nil {
		return
	}

	content, ok := githubReactions[ev.Emoji]
	if !ok {
		logger.Debug(
			"ignoring reaction, emoji has no github counterpart",
			logfields.Event("reaction_ignored"),
		)
		return
	}

	user, err := s.users.BySlackID(ctx, ev.UserID)
	if err != nil {
		logger.Error(
			"looking up linked user failed",
			logfields.Event("user_lookup_failed"),
			zap.Error(err),
		)
		return
	}

	if user == nil || user.GithubToken == "" {
		logger.Debug(
			"ignoring reaction, user has no linked github account",
			logfields.Event("reaction_ignored"),
		)
		return
	}

	clt := s.githubFactory(user.GithubToken)
	if err := clt.CreateCommentReaction(ctx, link.RepoOwner, link.RepoName, link.CommentType, link.CommentID, content); err != nil {
		logger.Error(
			"creating github reaction failed",
			logfields.Event("github_reaction_failed"),
			zap.Error(err),
		)
		return
	}

	logger.Debug(
		"reaction synced to github",
		logfields.Event("reaction_synced"),
		zap.String("github.reaction", content),
	)
}
