package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const tlds = `com|net|org|ru|su|рф|io|me|info|biz|xyz|online|site|app|dev|pro|club|shop|top|ua|by|kz|to|ly|gg|cc|co`

var (
	urlPattern = regexp.MustCompile(`(?i)(?:(?:https?|ftp)://|www\.)\S+|[\p{L}\p{N}-]+(?:\.[\p{L}\p{N}-]+)*\.(?:` + tlds + `)/\S*`)

	emailPattern = regexp.MustCompile(`[\p{L}\p{N}._%+-]+@[\p{L}\p{N}-]+(?:\.[\p{L}\p{N}-]+)+`)

	// Candidates only; a match needs at least minPhoneDigits digits.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{4,}\d`)

	domainPattern = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}.-])[\p{L}\p{N}-]+(?:\.[\p{L}\p{N}-]+)*\.(?:` + tlds + `)($|[^\p{L}\p{N}-])`)
)

const minPhoneDigits = 7

const allowedPunctuation = `,.:;-()!?"`

type stageFunc struct {
	name string
	fn   func(string) (string, error)
}

func (s stageFunc) Name() string                        { return s.name }
func (s stageFunc) Process(text string) (string, error) { return s.fn(text) }

func newStage(name string, fn func(string) string) Stage {
	return stageFunc{name: name, fn: func(s string) (string, error) { return fn(s), nil }}
}

// NormalizeStage applies NFC and maps every whitespace rune to a space.
func NormalizeStage() Stage {
	return newStage("normalize", func(s string) string {
		s = norm.NFC.String(s)
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			return r
		}, s)
	})
}

// StripContactsStage removes URLs, e-mail addresses and phone numbers.
func StripContactsStage() Stage {
	return newStage("strip_contacts", func(s string) string {
		s = urlPattern.ReplaceAllString(s, "")
		s = emailPattern.ReplaceAllString(s, "")
		s = phonePattern.ReplaceAllStringFunc(s, func(m string) string {
			digits := 0
			for _, r := range m {
				if r >= '0' && r <= '9' {
					digits++
				}
			}
			if digits >= minPhoneDigits {
				return ""
			}
			return m
		})
		return s
	})
}

// FilterCharsetStage drops every rune outside the allowed set and collapses
// spaces. Letters are kept only when they belong to one of scripts.
func FilterCharsetStage(scripts []*unicode.RangeTable) Stage {
	return newStage("filter_charset", func(s string) string {
		s = strings.Map(func(r rune) rune {
			if allowedRune(r, scripts) {
				return r
			}
			return -1
		}, s)
		return collapseSpaces(s)
	})
}

// StripDomainsStage removes domain-like tokens that survived contact removal.
func StripDomainsStage() Stage {
	return newStage("strip_domains", func(s string) string {
		return collapseSpaces(domainPattern.ReplaceAllString(s, "${1}${2}"))
	})
}

// RejectEmptyStage fails with ErrEmpty on empty text.
func RejectEmptyStage() Stage {
	return stageFunc{name: "reject_empty", fn: func(s string) (string, error) {
		if strings.TrimSpace(s) == "" {
			return "", ErrEmpty
		}
		return s, nil
	}}
}

// RejectBannedStage fails with a *DeniedError when the text contains one of
// words, compared case-insensitively as substrings.
func RejectBannedStage(words []string) Stage {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(norm.NFC.String(w)))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return stageFunc{name: "reject_banned", fn: func(s string) (string, error) {
		text := strings.ToLower(s)
		for _, w := range lowered {
			if strings.Contains(text, w) {
				return "", &DeniedError{StageName: "reject_banned", Reason: "moderation word matched"}
			}
		}
		return s, nil
	}}
}

// TruncateStage cuts the text to max runes.
func TruncateStage(max int) Stage {
	return newStage("truncate", func(s string) string {
		runes := []rune(s)
		if len(runes) <= max {
			return s
		}
		return strings.TrimSpace(string(runes[:max]))
	})
}

func allowedRune(r rune, scripts []*unicode.RangeTable) bool {
	switch {
	case r == ' ':
		return true
	case r >= '0' && r <= '9':
		return true
	case unicode.IsLetter(r):
		return unicode.In(r, scripts...)
	}
	return strings.ContainsRune(allowedPunctuation, r)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
