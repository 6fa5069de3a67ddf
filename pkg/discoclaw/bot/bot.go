// Package bot implements the discoclaw conversation relay: it classifies
// inbound Discord messages, keeps a per-channel transcript, forwards enriched
// prompts to the Ollama backend, and delivers replies back into the
// originating channel or a newly spawned hub thread.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jholhewres/discoclaw/pkg/discoclaw/config"
	"github.com/jholhewres/discoclaw/pkg/discoclaw/history"
	"github.com/jholhewres/discoclaw/pkg/discoclaw/ollama"
)

// Generator is the generation backend surface the pipeline depends on.
// Implemented by *ollama.Client.
type Generator interface {
	// Chat sends the transcript plus one new user message and returns the
	// generated assistant message.
	Chat(ctx context.Context, model string, msgs []ollama.Message) (ollama.Message, error)

	// Generate sends a one-shot prompt, optionally with base64 images.
	Generate(ctx context.Context, model, prompt string, images []string) (string, error)
}

// Messenger is the outbound delivery surface. Implemented over the discordgo
// session; faked in tests.
type Messenger interface {
	// SendMessage posts one chunk (at most 2000 characters) to a channel.
	SendMessage(channelID, content string) error

	// StartThread creates a thread rooted at a message and returns the new
	// thread's channel ID.
	StartThread(channelID, messageID, title string) (string, error)

	// Typing shows the typing indicator in a channel.
	Typing(channelID string) error
}

// Bot wires the Discord gateway to the dispatch pipeline.
type Bot struct {
	cfg        *config.Config
	logger     *slog.Logger
	gen        Generator
	msgr       Messenger
	history    *history.Store
	classifier Classifier

	// httpClient downloads message attachments.
	httpClient *http.Client

	session *discordgo.Session

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bot. The generator is injected so the pipeline can be tested
// against a fake backend.
func New(cfg *config.Config, gen Generator, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	l := logger.With("component", "bot")
	return &Bot{
		cfg:     cfg,
		logger:  l,
		gen:     gen,
		history: history.NewStore(logger),
		classifier: Classifier{
			HubChannelID: cfg.Discord.HubChannelID,
			PeerUserID:   cfg.Discord.PeerUserID,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// History exposes the conversation store (used by the serve command for
// status logging).
func (b *Bot) History() *history.Store { return b.history }

// Start opens the Discord gateway connection and begins processing events.
func (b *Bot) Start(ctx context.Context) error {
	if b.cfg.Discord.Token == "" {
		return fmt.Errorf("bot: discord token is required")
	}

	b.ctx, b.cancel = context.WithCancel(ctx)

	session, err := discordgo.New("Bot " + b.cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("bot: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)

	// Wire the delivery surface before opening so no event can observe a
	// half-initialized bot.
	b.session = session
	b.msgr = &sessionMessenger{session: session}

	if err := session.Open(); err != nil {
		return fmt.Errorf("bot: opening gateway: %w", err)
	}

	return nil
}

// Stop cancels in-flight pipelines and closes the gateway connection.
func (b *Bot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.session != nil {
		if err := b.session.Close(); err != nil {
			return fmt.Errorf("bot: closing gateway: %w", err)
		}
	}
	b.logger.Info("disconnected")
	return nil
}

// onReady logs the connected identity, sets the activity status, and
// registers the guild slash commands.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected", "bot", r.User.Username, "id", r.User.ID)

	if b.cfg.Discord.Activity != "" {
		if err := s.UpdateCustomStatus(b.cfg.Discord.Activity); err != nil {
			b.logger.Warn("failed to set activity", "error", err)
		}
	}

	if b.cfg.Discord.GuildID == "" {
		b.logger.Warn("no guild configured, skipping command registration")
		return
	}

	cmds, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.cfg.Discord.GuildID, commands())
	if err != nil {
		b.logger.Error("failed to register commands", "guild", b.cfg.Discord.GuildID, "error", err)
		return
	}
	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		names = append(names, cmd.Name)
	}
	b.logger.Info("commands registered", "guild", b.cfg.Discord.GuildID, "commands", names)
}

// onMessageCreate classifies each inbound message and runs the dispatch
// pipeline for the ones that warrant a reply. discordgo invokes handlers in
// their own goroutines, so a slow backend call here never blocks the gateway
// read loop or other channels' messages.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ev := b.buildEvent(s, m)
	outcome := b.classifier.Classify(ev)

	switch outcome {
	case OutcomeHubEntry:
		b.respondInThread(b.ctx, m)
	case OutcomeHubChild:
		b.respond(b.ctx, m)
	case OutcomeSelf, OutcomeIgnore:
		// Terminal; nothing to do.
	}
}

// buildEvent snapshots a message and its resolved channel metadata for the
// classifier. The bot's own identity comes from the session state, which the
// gateway populates before dispatching any handler, so the snapshot needs no
// shared mutable state. Metadata resolution failures degrade to "no parent"
// rather than dropping the event: a mention or reply-to-bot should still get
// a reply even when the channel cannot be resolved.
func (b *Bot) buildEvent(s *discordgo.Session, m *discordgo.MessageCreate) Event {
	botID := s.State.User.ID
	ev := Event{
		SelfAuthored: m.Author.Bot || m.Author.ID == botID,
		AuthorID:     m.Author.ID,
		ChannelID:    m.ChannelID,
		InGuild:      m.GuildID != "",
		MentionsBot:  mentions(m.Content, botID),
	}

	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		ev.RepliesToBot = m.ReferencedMessage.Author.ID == botID
	}

	if ev.InGuild {
		ch, err := s.State.Channel(m.ChannelID)
		if err != nil {
			ch, err = s.Channel(m.ChannelID)
		}
		if err != nil {
			b.logger.Warn("failed to resolve channel, treating as parentless",
				"chat_id", m.ChannelID, "error", err)
		} else {
			ev.ParentChannelID = ch.ParentID
		}
	}

	return ev
}

// sessionMessenger adapts a discordgo session to the Messenger interface.
type sessionMessenger struct {
	session *discordgo.Session
}

func (sm *sessionMessenger) SendMessage(channelID, content string) error {
	_, err := sm.session.ChannelMessageSend(channelID, content)
	return err
}

func (sm *sessionMessenger) StartThread(channelID, messageID, title string) (string, error) {
	thread, err := sm.session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                title,
		AutoArchiveDuration: 60,
	})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (sm *sessionMessenger) Typing(channelID string) error {
	return sm.session.ChannelTyping(channelID)
}

var _ Messenger = (*sessionMessenger)(nil)
