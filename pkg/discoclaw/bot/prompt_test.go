package bot

import "testing"

func TestComposePrompt(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		got := composePrompt("what time is it", "123", nil)
		want := "SYSTEM: User's ID: <@123>. User's message:> what time is it"
		if got != want {
			t.Errorf("composePrompt() = %q, want %q", got, want)
		}
	})

	t.Run("message with reference", func(t *testing.T) {
		ref := &reference{Content: "the sky is green", AuthorID: "456"}
		got := composePrompt("is that true?", "123", ref)
		want := "SYSTEM: Referenced message: the sky is green. " +
			"Referenced author's ID: <@456>. User's ID: <@123>. " +
			"User's message:> is that true?"
		if got != want {
			t.Errorf("composePrompt() = %q, want %q", got, want)
		}
	})

	t.Run("empty message body keeps template", func(t *testing.T) {
		got := composePrompt("", "123", nil)
		want := "SYSTEM: User's ID: <@123>. User's message:> "
		if got != want {
			t.Errorf("composePrompt() = %q, want %q", got, want)
		}
	})
}

func TestMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		userID  string
		want    bool
	}{
		{"plain mention", "hello <@42> there", "42", true},
		{"nickname mention", "hello <@!42> there", "42", true},
		{"no mention", "hello there", "42", false},
		{"different user", "hello <@43>", "42", false},
		{"id as substring only", "hello 42", "42", false},
		{"empty user id never matches", "hello <@>", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mentions(tt.content, tt.userID); got != tt.want {
				t.Errorf("mentions(%q, %q) = %v, want %v", tt.content, tt.userID, got, tt.want)
			}
		})
	}
}
