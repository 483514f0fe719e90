package pipeline

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultMaxLength is the maximum length of an accepted text answer in runes.
const DefaultMaxLength = 500

// Config configures a Sanitizer.
type Config struct {
	// BannedWords is the moderation word list.
	BannedWords []string
	// MaxLength defaults to DefaultMaxLength.
	MaxLength int
	// Scripts lists the Unicode script names whose letters are kept,
	// e.g. "Cyrillic", "Latin". Defaults to Cyrillic.
	Scripts []string
}

// Sanitizer turns raw free text into an accepted answer or a rejection.
// It is safe for concurrent use.
type Sanitizer struct {
	clean    *Executor
	policy   *Executor
	truncate Stage
}

// NewSanitizer builds the cleaning and policy executors from cfg.
func NewSanitizer(cfg Config) (*Sanitizer, error) {
	maxLen := cfg.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	scripts, err := ScriptTables(cfg.Scripts)
	if err != nil {
		return nil, err
	}

	clean := NewExecutor(ExecutorConfig{Stages: []StageConfig{
		{Order: 10, Stage: NormalizeStage()},
		{Order: 20, Stage: StripContactsStage()},
		{Order: 30, Stage: FilterCharsetStage(scripts)},
		{Order: 40, Stage: StripDomainsStage()},
	}})
	policy := NewExecutor(ExecutorConfig{Stages: []StageConfig{
		{Order: 10, Stage: RejectEmptyStage()},
		{Order: 20, Stage: RejectBannedStage(cfg.BannedWords)},
	}})

	return &Sanitizer{
		clean:    clean,
		policy:   policy,
		truncate: TruncateStage(maxLen),
	}, nil
}

// Sanitize returns the accepted text, ErrEmpty, or a *DeniedError.
// Sanitize(Sanitize(x)) == Sanitize(x) for every accepted x.
func (s *Sanitizer) Sanitize(raw string) (string, error) {
	text, err := s.clean.RunUntilStable(raw)
	if err != nil {
		return "", err
	}
	if _, err := s.policy.Run(text); err != nil {
		return "", err
	}

	for {
		cut, _ := s.truncate.Process(text)
		if cut == text {
			break
		}
		if text, err = s.clean.RunUntilStable(cut); err != nil {
			return "", err
		}
	}

	// Cleaning the truncated prefix may join fragments; check again.
	if _, err := s.policy.Run(text); err != nil {
		return "", err
	}
	return text, nil
}

// Stages returns the stage names in the order they are applied.
func (s *Sanitizer) Stages() []string {
	names := append(s.clean.Stages(), s.policy.Stages()...)
	return append(names, s.truncate.Name())
}

// ScriptTables resolves script names case-insensitively against
// unicode.Scripts.
func ScriptTables(names []string) ([]*unicode.RangeTable, error) {
	if len(names) == 0 {
		return []*unicode.RangeTable{unicode.Cyrillic}, nil
	}
	tables := make([]*unicode.RangeTable, 0, len(names))
	for _, name := range names {
		table := lookupScript(name)
		if table == nil {
			return nil, fmt.Errorf("unknown script %q", name)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func lookupScript(name string) *unicode.RangeTable {
	for key, table := range unicode.Scripts {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return table
		}
	}
	return nil
}
