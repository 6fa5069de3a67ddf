package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/jholhewres/discoclaw/pkg/discoclaw/history"
	"github.com/jholhewres/discoclaw/pkg/discoclaw/ollama"
)

// threadTitleLen is the maximum length of a Discord thread name.
const threadTitleLen = 100

// typingInterval is how often the typing indicator is refreshed while the
// backend is generating. Discord's indicator expires after about ten seconds.
const typingInterval = 8 * time.Second

// eventLogger derives a per-event logger with a trace ID.
func (b *Bot) eventLogger(m *discordgo.MessageCreate) *slog.Logger {
	return b.logger.With(
		"trace_id", uuid.NewString()[:8],
		"chat_id", m.ChannelID,
		"msg_id", m.ID,
		"from", m.Author.ID,
	)
}

// respond runs the general reply flow: compose, call the backend with the
// channel's transcript, append the exchange, and deliver the reply in chunks
// to the originating channel.
func (b *Bot) respond(ctx context.Context, m *discordgo.MessageCreate) {
	logger := b.eventLogger(m)
	logger.Info("handling message", "flow", "reply")

	stopTyping := b.startTyping(ctx, m.ChannelID)
	defer stopTyping()

	// The lock covers only the read-chat-append critical section inside
	// exchange; delivery runs unlocked so slow sends never block the next
	// message in this channel.
	conv := b.history.GetOrCreate(m.ChannelID)
	conv.Lock()
	reply, ok := b.exchange(ctx, logger, conv, m)
	conv.Unlock()
	if !ok {
		return
	}

	b.deliver(logger, m.ChannelID, reply)
}

// respondInThread runs the hub-entry flow: same exchange as respond, plus a
// one-shot summary generation whose first 100 runes title a new thread rooted
// at the triggering message. The reply is delivered into that thread. If the
// summary generation fails, the exchange stays in the transcript but no
// thread is created and nothing is delivered.
func (b *Bot) respondInThread(ctx context.Context, m *discordgo.MessageCreate) {
	logger := b.eventLogger(m)
	logger.Info("handling message", "flow", "thread")

	stopTyping := b.startTyping(ctx, m.ChannelID)
	defer stopTyping()

	conv := b.history.GetOrCreate(m.ChannelID)
	conv.Lock()
	reply, ok := b.exchange(ctx, logger, conv, m)
	conv.Unlock()
	if !ok {
		return
	}

	// The transcript is complete at this point; summary generation, thread
	// creation, and delivery happen outside the conversation lock.
	summary, err := b.gen.Generate(ctx, b.cfg.Ollama.SummaryModel, m.Content, nil)
	if err != nil {
		logger.Error("summary generation failed, skipping thread", "error", err)
		return
	}

	title := truncateRunes(strings.TrimSpace(summary), threadTitleLen)
	if title == "" {
		title = truncateRunes(strings.TrimSpace(m.Content), threadTitleLen)
	}
	if title == "" {
		title = "conversation"
	}

	threadID, err := b.msgr.StartThread(m.ChannelID, m.ID, title)
	if err != nil {
		logger.Error("failed to create thread", "title", title, "error", err)
		return
	}
	logger.Info("thread created", "thread_id", threadID, "title", title)

	b.deliver(logger, threadID, reply)
}

// exchange performs the shared middle of both flows: attachment
// summarization, prompt composition, the chat call, and the transcript
// append. The caller must hold the conversation lock; it stays held across
// the backend round trip so concurrent messages in the same channel cannot
// reorder the transcript. Returns ok=false when the backend call failed and
// the event should end silently.
func (b *Bot) exchange(ctx context.Context, logger *slog.Logger, conv *history.Conversation, m *discordgo.MessageCreate) (reply string, ok bool) {
	var ref *reference
	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		ref = &reference{
			Content:  m.ReferencedMessage.Content,
			AuthorID: m.ReferencedMessage.Author.ID,
		}
	}

	prompt := composePrompt(m.Content, m.Author.ID, ref)
	prompt = b.appendImageSummaries(ctx, logger, m.Attachments, prompt)

	msgs := toMessages(conv.Turns())
	msgs = append(msgs, ollama.Message{Role: string(history.RoleUser), Content: prompt})

	res, err := b.gen.Chat(ctx, b.cfg.Ollama.ChatModel, msgs)
	if err != nil {
		logger.Error("chat generation failed", "error", err)
		return "", false
	}

	conv.Append(
		history.Turn{Role: history.RoleUser, Content: prompt},
		history.Turn{Role: history.RoleAssistant, Content: res.Content},
	)
	logger.Info("exchange recorded", "turns", conv.Len(), "reply_len", len(res.Content))

	return res.Content, true
}

// deliver splits a reply into Discord-sized chunks and posts them in order.
// A failed chunk is logged and the remaining chunks are still attempted.
func (b *Bot) deliver(logger *slog.Logger, channelID, content string) {
	chunks := splitMessage(content, maxMessageLen)
	for i, chunk := range chunks {
		if err := b.msgr.SendMessage(channelID, chunk); err != nil {
			logger.Error("failed to send chunk",
				"target", channelID, "chunk", i+1, "total", len(chunks), "error", err)
		}
	}
	if len(chunks) > 0 {
		logger.Info("reply delivered", "target", channelID, "chunks", len(chunks))
	}
}

// startTyping shows the typing indicator and keeps refreshing it until the
// returned stop function is called.
func (b *Bot) startTyping(ctx context.Context, channelID string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			if err := b.msgr.Typing(channelID); err != nil {
				b.logger.Debug("typing indicator failed", "chat_id", channelID, "error", err)
			}
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() { close(done) }
}

// toMessages converts a transcript to the backend wire format.
func toMessages(turns []history.Turn) []ollama.Message {
	msgs := make([]ollama.Message, 0, len(turns)+1)
	for _, t := range turns {
		msgs = append(msgs, ollama.Message{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}
