// Package validation checks word text against the content rules of the
// owning dictation's language before anything is written. The checks are
// pure functions: same input, same verdict, no side effects.
package validation

import (
	"fmt"
	"unicode"
)

// MaxWordLen is the maximum accepted length of a word's text in runes.
const MaxWordLen = 200

// Reason identifies which content rule a word violated.
type Reason string

const (
	// TooLong means the text exceeds MaxWordLen.
	TooLong Reason = "too_long"
	// ScriptMismatch means the text mixes scripts the dictation
	// language forbids (Cyrillic in "en", Latin in "ru").
	ScriptMismatch Reason = "script_mismatch"
	// EmptyContent means the text contains no letter or digit at all.
	EmptyContent Reason = "empty_content"
)

// ContentError reports a single word that failed validation. The
// offending text is truncated in Error() so log lines stay short.
type ContentError struct {
	Reason Reason
	Text   string
}

func (e *ContentError) Error() string {
	t := e.Text
	if r := []rune(t); len(r) > 20 {
		t = string(r[:20]) + "..."
	}
	switch e.Reason {
	case TooLong:
		return fmt.Sprintf("word %q is too long (max %d chars)", t, MaxWordLen)
	case ScriptMismatch:
		return fmt.Sprintf("word %q does not match the dictation language script", t)
	default:
		return fmt.Sprintf("word %q must contain at least one letter or digit", t)
	}
}

// Validate applies the content rules to a single word in order:
// length limit, script match for "en"/"ru", and the requirement that
// the text carries at least one letter or digit. Languages other than
// "en" and "ru" skip the script check. A nil return means the word is
// acceptable.
func Validate(text, language string) error {
	if len([]rune(text)) > MaxWordLen {
		return &ContentError{Reason: TooLong, Text: text}
	}
	switch language {
	case "en":
		if containsScript(text, unicode.Cyrillic) {
			return &ContentError{Reason: ScriptMismatch, Text: text}
		}
	case "ru":
		if containsScript(text, unicode.Latin) {
			return &ContentError{Reason: ScriptMismatch, Text: text}
		}
	}
	if !hasLetterOrDigit(text) {
		return &ContentError{Reason: EmptyContent, Text: text}
	}
	return nil
}

func containsScript(s string, table *unicode.RangeTable) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && unicode.Is(table, r) {
			return true
		}
	}
	return false
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
		if unicode.IsLetter(r) && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Cyrillic, r)) {
			return true
		}
	}
	return false
}
