package bot

// Outcome is the classification result for one inbound message.
type Outcome int

const (
	// OutcomeIgnore means the message triggers nothing.
	OutcomeIgnore Outcome = iota

	// OutcomeSelf means the message was authored by the bot (or another
	// bot) and is always ignored.
	OutcomeSelf

	// OutcomeHubEntry means the message landed in the hub channel itself
	// and triggers the thread-creation flow.
	OutcomeHubEntry

	// OutcomeHubChild means the message belongs to an ongoing conversation
	// (hub thread, designated DM, mention, or reply to the bot) and
	// triggers an in-channel reply.
	OutcomeHubChild
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSelf:
		return "self"
	case OutcomeHubEntry:
		return "hub_entry"
	case OutcomeHubChild:
		return "hub_child"
	default:
		return "ignore"
	}
}

// Event is the snapshot of an inbound message the classifier decides on.
// It is computed fresh per message from the message, the bot's own identity,
// and the resolved channel metadata, never cached. Identity-dependent checks
// (mentions, reply-to-bot) are resolved into flags at snapshot time so the
// classifier itself carries no mutable state.
type Event struct {
	// SelfAuthored is true when the author is the bot itself or any bot
	// account.
	SelfAuthored bool

	// AuthorID is the message author's user ID.
	AuthorID string

	// ChannelID is the channel the message arrived in.
	ChannelID string

	// ParentChannelID is the parent of the message's channel (set for
	// threads), or empty when there is none or it could not be resolved.
	ParentChannelID string

	// InGuild is true for guild messages, false for DMs.
	InGuild bool

	// MentionsBot is true when the message text mentions the bot.
	MentionsBot bool

	// RepliesToBot is true when the message replies to a message authored
	// by the bot.
	RepliesToBot bool
}

// Classifier decides which messages get a reply. It is a pure decision
// function over one Event; the predicates are evaluated in a fixed order and
// the first match wins. The struct is immutable after construction and safe
// for concurrent use.
type Classifier struct {
	// HubChannelID is the designated hub channel.
	HubChannelID string

	// PeerUserID is the user whose DMs always get a reply.
	PeerUserID string
}

// Classify returns the outcome for one event.
func (c Classifier) Classify(ev Event) Outcome {
	// Self check comes first, unconditionally.
	if ev.SelfAuthored {
		return OutcomeSelf
	}

	if c.HubChannelID != "" && ev.ChannelID == c.HubChannelID {
		return OutcomeHubEntry
	}

	switch {
	case c.HubChannelID != "" && ev.ParentChannelID == c.HubChannelID:
		return OutcomeHubChild
	case !ev.InGuild && c.PeerUserID != "" && ev.AuthorID == c.PeerUserID:
		return OutcomeHubChild
	case ev.MentionsBot:
		return OutcomeHubChild
	case ev.RepliesToBot:
		return OutcomeHubChild
	}

	return OutcomeIgnore
}
