// Package bot connects to Twitch chat and dispatches chat commands: content
// warning lookups in subscriber channels, opt-in/opt-out management in the
// bot's own channel.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/cw-bot/config"
	"github.com/onnwee/cw-bot/db"
	"github.com/onnwee/cw-bot/dddapi"
	"github.com/onnwee/cw-bot/telemetry"
)

// commandTimeout bounds the external lookups behind a single chat command.
const commandTimeout = 30 * time.Second

// chatClient is the transport surface the bot uses; satisfied by
// *twitch.Client and by test fakes.
type chatClient interface {
	Join(channels ...string)
	Depart(channel string)
	Say(channel, text string)
}

// CategoryResolver resolves a channel login to its current category name.
type CategoryResolver interface {
	CurrentCategoryByLogin(ctx context.Context, login string) (string, error)
}

// WarningLookup runs the content-warning pipeline for a game title.
type WarningLookup interface {
	Lookup(ctx context.Context, gameTitle string, sensitiveOnly bool) (dddapi.Result, error)
}

// SubscriberStore persists channel opt-in state.
type SubscriberStore interface {
	ListSubscribers(ctx context.Context) ([]db.Subscriber, error)
	GetSubscriber(ctx context.Context, username string) (db.Subscriber, bool, error)
	CreateSubscriber(ctx context.Context, username string) error
	DeleteSubscriber(ctx context.Context, username string) error
}

// Bot wires the chat transport to the two lookup pipelines and the
// subscriber store.
type Bot struct {
	cfg        *config.Config
	client     *twitch.Client
	chat       chatClient
	categories CategoryResolver
	warnings   WarningLookup
	store      SubscriberStore
}

// New builds a Bot with a connected-on-Run go-twitch-irc client.
func New(cfg *config.Config, store SubscriberStore, categories CategoryResolver, warnings WarningLookup) *Bot {
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	b := &Bot{
		cfg:        cfg,
		client:     client,
		chat:       client,
		categories: categories,
		warnings:   warnings,
		store:      store,
	}
	return b
}

// Run connects to chat and blocks until ctx is cancelled or the connection
// fails. On connect it joins the bot's own channel plus every subscriber.
func (b *Bot) Run(ctx context.Context) error {
	b.client.OnConnect(func() {
		slog.Info("twitch chat connected", slog.String("bot", b.cfg.TwitchBotUsername))
		b.joinSubscribedChannels(ctx)
	})
	b.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		b.handleMessage(ctx, msg.Channel, msg.User.Name, msg.Message)
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := b.client.Disconnect(); err != nil {
			slog.Debug("twitch chat disconnect", slog.Any("err", err))
		}
		close(done)
	}()

	if err := b.client.Connect(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	<-done
	return nil
}

func (b *Bot) joinSubscribedChannels(ctx context.Context) {
	b.chat.Join(b.cfg.TwitchBotUsername)
	joined := 1
	subs, err := b.store.ListSubscribers(ctx)
	if err != nil {
		slog.Error("failed to list subscribers on connect", slog.Any("err", err))
		telemetry.SetJoinedChannels(joined)
		return
	}
	for _, s := range subs {
		if strings.EqualFold(s.Username, b.cfg.TwitchBotUsername) {
			continue
		}
		b.chat.Join(s.Username)
		joined++
	}
	telemetry.SetJoinedChannels(joined)
	slog.Info("joined subscriber channels", slog.Int("count", joined))
}

// handleMessage is the command dispatcher. Messages from the bot itself are
// dropped; the bot's own channel handles opt-in/opt-out; everywhere else the
// content-warning command is the only trigger.
func (b *Bot) handleMessage(ctx context.Context, channel, username, text string) {
	if strings.EqualFold(username, b.cfg.TwitchBotUsername) {
		return
	}

	cmd := ParseCommand(text)
	if cmd == CommandNone {
		return
	}

	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "chat-bot", "command "+cmd.String())
	defer span.End()

	if strings.EqualFold(channel, b.cfg.TwitchBotUsername) {
		switch cmd {
		case CommandJoin:
			telemetry.CountCommand(cmd.String())
			b.handleJoin(ctx, channel, username)
		case CommandLeave:
			telemetry.CountCommand(cmd.String())
			b.handleLeave(ctx, channel, username)
		}
		return
	}

	if cmd == CommandContentWarning {
		telemetry.CountCommand(cmd.String())
		b.handleContentWarning(ctx, channel)
	}
}

func (b *Bot) handleContentWarning(ctx context.Context, channel string) {
	log := telemetry.LoggerWithCorr(ctx)

	var category string
	var err error
	telemetry.TimeFunc(telemetry.CategoryLookupDuration, func() {
		category, err = b.categories.CurrentCategoryByLogin(ctx, channel)
	})
	if telemetry.CategoryLookups != nil {
		telemetry.CategoryLookups.Inc()
	}
	if err != nil {
		// A category service failure is presented the same as "no
		// category": the viewer gets a neutral answer, the log keeps
		// the reason.
		if telemetry.CategoryLookupsFailed != nil {
			telemetry.CategoryLookupsFailed.Inc()
		}
		log.Error("category lookup failed", slog.String("channel", channel), slog.Any("err", err))
		category = ""
	}

	if category == "" {
		b.chat.Say(channel, "No content warnings for streams with no category/game")
		return
	}
	if b.cfg.IsIgnoredCategory(category) {
		b.chat.Say(channel, fmt.Sprintf("No content warnings for “%s”", category))
		return
	}

	var res dddapi.Result
	telemetry.TimeFunc(telemetry.WarningLookupDuration, func() {
		res, err = b.warnings.Lookup(ctx, category, b.cfg.SensitiveOnly)
	})
	if telemetry.WarningLookups != nil {
		telemetry.WarningLookups.Inc()
	}
	if err != nil {
		if telemetry.WarningLookupsFailed != nil {
			telemetry.WarningLookupsFailed.Inc()
		}
		if dddapi.IsNotFound(err) {
			log.Info("no content warnings found", slog.String("category", category), slog.Any("err", err))
		} else {
			log.Error("content warning lookup failed", slog.String("category", category), slog.Any("err", err))
		}
		b.chat.Say(channel, fmt.Sprintf("Couldn't find any content warnings for “%s” on doesthedogdie.com...", category))
		return
	}

	if len(res.ContentWarnings) == 0 {
		b.chat.Say(channel, fmt.Sprintf("Didn't find any crowdsourced content warnings for “%s”. See more at %s", category, res.URL))
		return
	}
	b.chat.Say(channel, fmt.Sprintf("Content warnings for “%s”: %s. See more at %s",
		category, strings.Join(res.ContentWarnings, ", "), res.URL))
}

func (b *Bot) handleJoin(ctx context.Context, channel, username string) {
	log := telemetry.LoggerWithCorr(ctx)
	_, exists, err := b.store.GetSubscriber(ctx, username)
	if err != nil {
		log.Error("subscriber lookup failed", slog.String("user", username), slog.Any("err", err))
		b.sayTryAgain(channel, username)
		return
	}
	if exists {
		b.chat.Say(channel, fmt.Sprintf("@%s, you have already started using the bot. Make sure to mod me with: /mod %s...", username, b.cfg.TwitchBotUsername))
		return
	}
	if err := b.store.CreateSubscriber(ctx, username); err != nil {
		log.Error("subscriber create failed", slog.String("user", username), slog.Any("err", err))
		b.sayTryAgain(channel, username)
		return
	}
	b.chat.Join(username)
	log.Info("channel opted in", slog.String("user", username))
	b.chat.Say(channel, fmt.Sprintf("@%s, you have started using the bot. Make sure to mod me with: /mod %s. Try !cw or !contentwarning in your channel's chat.", username, b.cfg.TwitchBotUsername))
}

func (b *Bot) handleLeave(ctx context.Context, channel, username string) {
	log := telemetry.LoggerWithCorr(ctx)
	_, exists, err := b.store.GetSubscriber(ctx, username)
	if err != nil {
		log.Error("subscriber lookup failed", slog.String("user", username), slog.Any("err", err))
		b.sayTryAgain(channel, username)
		return
	}
	if !exists {
		b.chat.Say(channel, fmt.Sprintf("@%s, you have stopped using the bot.", username))
		return
	}
	if err := b.store.DeleteSubscriber(ctx, username); err != nil {
		log.Error("subscriber delete failed", slog.String("user", username), slog.Any("err", err))
		b.sayTryAgain(channel, username)
		return
	}
	b.chat.Depart(username)
	log.Info("channel opted out", slog.String("user", username))
	b.chat.Say(channel, fmt.Sprintf("@%s, you have stopped using the bot.", username))
}

func (b *Bot) sayTryAgain(channel, username string) {
	b.chat.Say(channel, fmt.Sprintf("@%s, something went wrong. Please try again later...", username))
}
