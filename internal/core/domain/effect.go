package domain

// EffectKind selects how the transport renders an Effect.
type EffectKind string

const (
	EffectText     EffectKind = "text"
	EffectMedia    EffectKind = "media"
	EffectLocation EffectKind = "location"
)

// Keyboard is a reply keyboard laid out in rows of button labels.
type Keyboard [][]string

// Link is an inline button opening a URL.
type Link struct {
	Text string
	URL  string
}

// Effect is an abstract outbound action for the transport to render.
type Effect struct {
	Kind     EffectKind
	ChatID   int64
	Text     string
	Markdown bool
	Keyboard Keyboard
	Media    *Media
	Location *Location
	Silent   bool
}

// Outcome classifies the result of one dialog transition.
type Outcome string

const (
	OutcomeAdvanced        Outcome = "advanced"
	OutcomeFallback        Outcome = "fallback"
	OutcomeContentRejected Outcome = "content_rejected"
	OutcomeBack            Outcome = "back"
	OutcomeRestart         Outcome = "restart"
	OutcomeStarted         Outcome = "started"
	OutcomeInfo            Outcome = "info"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeSubmitted       Outcome = "submitted"
	OutcomeSubmitFailed    Outcome = "submit_failed"
	OutcomeIgnored         Outcome = "ignored"
)
