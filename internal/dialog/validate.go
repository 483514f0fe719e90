package dialog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/pipeline"
)

// ValidationError is a recoverable input error: the step is re-prompted and
// nothing is recorded.
type ValidationError struct {
	Step   domain.StepID
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.Step, e.Reason)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TextSanitizer cleans free-text answers. *pipeline.Sanitizer implements it.
type TextSanitizer interface {
	Sanitize(raw string) (string, error)
}

// parseAnswer validates in against def. It returns a *ValidationError for
// malformed input and a *pipeline.DeniedError for moderated text.
func parseAnswer(def *StepDefinition, in domain.Input, sanitizer TextSanitizer) (domain.Answer, error) {
	text := strings.TrimSpace(in.Text)
	invalid := func(reason string) (domain.Answer, error) {
		return domain.Answer{}, &ValidationError{Step: def.ID, Reason: reason}
	}

	switch def.Kind {
	case InputChoice:
		if text == "" {
			return invalid("empty choice")
		}
		for _, opt := range def.Options {
			if text == opt || strings.EqualFold(text, opt) {
				return domain.ChoiceAnswer(opt), nil
			}
		}
		return invalid("not one of the options")

	case InputNumber:
		n, err := strconv.Atoi(text)
		if err != nil {
			return invalid("not an integer")
		}
		if n < def.Range.Min || n > def.Range.Max {
			return invalid(fmt.Sprintf("%d outside [%d, %d]", n, def.Range.Min, def.Range.Max))
		}
		return domain.NumberAnswer(n), nil

	case InputText:
		if text == "" {
			return invalid("empty text")
		}
		clean, err := sanitizer.Sanitize(text)
		if errors.Is(err, pipeline.ErrEmpty) {
			return invalid("empty after sanitization")
		}
		if err != nil {
			return domain.Answer{}, err
		}
		return domain.TextAnswer(clean), nil

	case InputMedia:
		if in.Media == nil || in.Media.FileID == "" {
			return invalid("no attachment")
		}
		switch in.Media.Kind {
		case domain.MediaPhoto, domain.MediaAnimation, domain.MediaVideo:
			return domain.MediaAnswer(*in.Media), nil
		}
		return invalid(fmt.Sprintf("unsupported media kind %q", in.Media.Kind))

	case InputLocation:
		if in.Location == nil {
			return invalid("no location")
		}
		loc := *in.Location
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return invalid("coordinates out of range")
		}
		return domain.LocationAnswer(loc), nil
	}

	return invalid(fmt.Sprintf("step kind %s takes no answer", def.Kind))
}

// matchAction returns the first confirm action with a phrase contained in
// text, case-insensitively, or whose label equals text.
func matchAction(def *StepDefinition, text string) (Action, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Action{}, false
	}
	for _, a := range def.Actions {
		if a.Label != "" && strings.EqualFold(strings.TrimSpace(text), a.Label) {
			return a, true
		}
	}
	for _, a := range def.Actions {
		for _, m := range a.Match {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.Contains(lower, m) {
				return a, true
			}
		}
	}
	return Action{}, false
}

// containsAny reports whether text contains one of phrases,
// case-insensitively.
func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	if lower == "" {
		return false
	}
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
