package bot

import (
	"fmt"
	"strings"
)

// reference carries the quoted-message context when a message is a reply.
type reference struct {
	Content  string
	AuthorID string
}

// composePrompt builds the single instruction line sent as the user turn.
// The format is fixed: the backend's system prompt is trained against it, so
// author IDs are always rendered as Discord mentions and the message body
// always follows the "User's message:>" marker. Image descriptions, when
// present, are appended afterwards by the attachment summarizer.
func composePrompt(content, authorID string, ref *reference) string {
	if ref != nil {
		return fmt.Sprintf(
			"SYSTEM: Referenced message: %s. Referenced author's ID: <@%s>. User's ID: <@%s>. User's message:> %s",
			ref.Content, ref.AuthorID, authorID, content,
		)
	}
	return fmt.Sprintf("SYSTEM: User's ID: <@%s>. User's message:> %s", authorID, content)
}

// mentions reports whether content contains a mention of the given user.
// Discord renders mentions as <@id> or <@!id> depending on nickname state.
func mentions(content, userID string) bool {
	if userID == "" {
		return false
	}
	return strings.Contains(content, "<@"+userID+">") || strings.Contains(content, "<@!"+userID+">")
}
