package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var ce *ContentError
	require.True(t, errors.As(err, &ce), "expected *ContentError, got %v", err)
	return ce.Reason
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		language string
		reason   Reason // empty means no error expected
	}{
		{name: "plain english word", text: "Apple", language: "en"},
		{name: "plain russian word", text: "яблоко", language: "ru"},
		{name: "digits only", text: "42", language: "en"},
		{name: "punctuation inside word", text: "don't", language: "en"},
		{name: "too long", text: strings.Repeat("a", 201), language: "en", reason: TooLong},
		{name: "exactly at limit", text: strings.Repeat("a", 200), language: "en"},
		{name: "cyrillic in english set", text: "приветhello", language: "en", reason: ScriptMismatch},
		{name: "cyrillic yo in english set", text: "ёж", language: "en", reason: ScriptMismatch},
		{name: "latin in russian set", text: "слово word", language: "ru", reason: ScriptMismatch},
		{name: "latin allowed in other language", text: "bonjour", language: "fr"},
		{name: "cyrillic allowed in other language", text: "здраво", language: "sr"},
		{name: "punctuation only", text: "?!...", language: "en", reason: EmptyContent},
		{name: "whitespace only", text: "   ", language: "ru", reason: EmptyContent},
		{name: "empty string", text: "", language: "en", reason: EmptyContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.text, tc.language)
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

// The verdict must not depend on call order or repetition.
func TestValidateDeterministic(t *testing.T) {
	inputs := []struct{ text, lang string }{
		{"Apple", "en"},
		{"привет", "en"},
		{"word", "ru"},
		{"!!!", "en"},
	}
	for _, in := range inputs {
		first := Validate(in.text, in.lang)
		for i := 0; i < 10; i++ {
			got := Validate(in.text, in.lang)
			if first == nil {
				assert.NoError(t, got)
				continue
			}
			require.Error(t, got)
			assert.Equal(t, reasonOf(t, first), reasonOf(t, got))
		}
	}
}

// Length is checked before the script rules: an over-long word with a
// script violation still reports TooLong first.
func TestValidateRuleOrder(t *testing.T) {
	text := strings.Repeat("п", 201)
	assert.Equal(t, TooLong, reasonOf(t, Validate(text, "en")))
}

func TestContentErrorTruncatesText(t *testing.T) {
	err := Validate(strings.Repeat("x", 300), "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "...")
	assert.Less(t, len(err.Error()), 80)
}
