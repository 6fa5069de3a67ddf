package bot

// maxMessageLen is Discord's per-message character limit.
const maxMessageLen = 2000

// splitMessage splits text into chunks of at most maxLen runes each. Cuts are
// made by rune, never inside a multi-byte code point, so every chunk except
// possibly the last is exactly maxLen runes. Empty input yields no chunks.
func splitMessage(text string, maxLen int) []string {
	if text == "" || maxLen <= 0 {
		return nil
	}

	var chunks []string
	current := make([]rune, 0, maxLen)
	for _, r := range text {
		current = append(current, r)
		if len(current) == maxLen {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}

// truncateRunes returns at most maxLen runes of s.
func truncateRunes(s string, maxLen int) string {
	chunks := splitMessage(s, maxLen)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}
