package config

import (
	"errors"
	"fmt"
	"strings"
)

// Message template names.
const (
	TemplateWelcome               = "welcome"
	TemplateStart                 = "start"
	TemplateSelectStreet          = "select_street"
	TemplateSelectHouseNumber     = "select_house_number"
	TemplateSelectProblemArea     = "select_problem_area"
	TemplateSelectSectionNumber   = "select_section_number"
	TemplateSelectFloorNumber     = "select_floor_number"
	TemplateSelectFlatNumber      = "select_flat_number"
	TemplateSelectStoreroomNumber = "select_storeroom_number"
	TemplateSelectParkingNumber   = "select_parking_number"
	TemplateSpecifyDescription    = "specify_description"
	TemplateConfirmRequest        = "confirm_request"
	TemplateUploadPhoto           = "upload_photo"
	TemplateAddDescription        = "add_description"
	TemplateShareLocation         = "share_location"
	TemplateFallback              = "fallback"
	TemplateContentRejected       = "content_rejected"
	TemplateRequest               = "request"
	TemplateSuccess               = "success"
	TemplateDuplicate             = "duplicate"
	TemplateSubmitFailed          = "submit_failed"
	TemplateFireHint              = "request_fire_hint"
	TemplateResponsibleReply      = "received_response_from_responsible_person"
	TemplatePinMessage            = "pin_message"
	TemplatePinMessageButton      = "pin_message_button"
	TemplateRules                 = "rules"
)

// RequiredTemplates lists templates the bot cannot run without.
var RequiredTemplates = []string{
	TemplateWelcome,
	TemplateStart,
	TemplateSelectStreet,
	TemplateSelectHouseNumber,
	TemplateSelectProblemArea,
	TemplateSelectSectionNumber,
	TemplateSelectFloorNumber,
	TemplateSelectFlatNumber,
	TemplateSelectStoreroomNumber,
	TemplateSelectParkingNumber,
	TemplateSpecifyDescription,
	TemplateConfirmRequest,
	TemplateUploadPhoto,
	TemplateAddDescription,
	TemplateShareLocation,
	TemplateFallback,
	TemplateContentRejected,
	TemplateRequest,
	TemplateSuccess,
	TemplateDuplicate,
	TemplateSubmitFailed,
}

// Validate reports every problem found in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Telegram.Mode {
	case "polling":
	case "webhook":
		if c.Telegram.Webhook.Path == "" || !strings.HasPrefix(c.Telegram.Webhook.Path, "/") {
			add("telegram.webhook.path must start with /")
		}
		if c.Server.Port <= 0 {
			add("telegram.mode webhook needs server.port")
		}
	default:
		add("telegram.mode %q is not one of polling, webhook", c.Telegram.Mode)
	}
	if c.Telegram.PollTimeout < 0 {
		add("telegram.poll_timeout must not be negative")
	}
	if c.Telegram.RequestTimeout <= c.Telegram.PollTimeout {
		add("telegram.request_timeout must exceed telegram.poll_timeout")
	}

	for _, name := range RequiredTemplates {
		if strings.TrimSpace(c.Templates[name]) == "" {
			add("messages_templates.%s is required", name)
		}
	}
	for _, b := range c.Keyphrases.SpecialButtons {
		if b.Label == "" || b.Template == "" {
			add("keyphrases.special_buttons entries need label and template")
			continue
		}
		if c.Templates[b.Template] == "" {
			add("keyphrases.special_buttons %q refers to missing template %q", b.Label, b.Template)
		}
	}

	lists := []struct {
		name  string
		items []string
	}{
		{"keyphrases.issues_categories", c.Keyphrases.IssuesCategories},
		{"keyphrases.supported_streets", c.Keyphrases.SupportedStreets},
		{"keyphrases.problem_areas", c.Keyphrases.ProblemAreas},
		{"keyphrases.go_back", c.Keyphrases.GoBack},
		{"keyphrases.go_restart", c.Keyphrases.GoRestart},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			add("%s must not be empty", l.name)
		}
	}

	actions := []struct {
		name string
		a    ActionConfig
	}{
		{"send", c.Keyphrases.Confirmation.Send},
		{"add_photo", c.Keyphrases.Confirmation.AddPhoto},
		{"add_description", c.Keyphrases.Confirmation.AddDescription},
		{"add_location", c.Keyphrases.Confirmation.AddLocation},
	}
	for _, act := range actions {
		if act.a.Label == "" || len(act.a.Match) == 0 {
			add("keyphrases.confirmation.%s needs label and match", act.name)
		}
	}

	if strings.TrimSpace(c.Routing.FireKeyword) == "" {
		add("routing.fire_keyword must not be empty")
	}
	for _, r := range c.Routing.Areas {
		switch r.Route {
		case RouteFloor, RouteFlat, RouteParking, RouteStoreroom, RouteDescription:
		default:
			add("routing.areas route %q for %q is unknown", r.Route, r.Match)
		}
	}
	for _, area := range c.Keyphrases.ProblemAreas {
		if _, ok := c.RouteFor(area); !ok {
			add("problem area %q matches no routing.areas entry", area)
		}
	}

	ranges := []struct {
		name string
		r    Range
	}{
		{"house", c.Ranges.House},
		{"section", c.Ranges.Section},
		{"floor", c.Ranges.Floor},
		{"flat", c.Ranges.Flat},
		{"storeroom", c.Ranges.Storeroom},
		{"parking", c.Ranges.Parking},
	}
	for _, r := range ranges {
		if r.r.Min > r.r.Max {
			add("ranges.%s: min %d exceeds max %d", r.name, r.r.Min, r.r.Max)
		}
	}

	if c.Moderation.MaxTextLength <= 0 {
		add("moderation.max_text_length must be positive")
	}

	switch c.Storage.Type {
	case "memory":
	case "file":
		if c.Storage.File.Path == "" {
			add("storage.file.path is required")
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			add("storage.sqlite.path is required")
		}
	default:
		add("storage.type %q is not one of memory, file, sqlite", c.Storage.Type)
	}

	if c.Session.FlushInterval <= 0 {
		add("session.flush_interval must be positive")
	}
	if c.Dedup.TTL <= 0 {
		add("dedup.ttl must be positive")
	}
	if c.Dedup.PruneInterval <= 0 {
		add("dedup.prune_interval must be positive")
	}
	if c.Delivery.Attempts < 1 {
		add("delivery.attempts must be at least 1")
	}
	if c.Delivery.Backoff < 0 || c.Delivery.MaxBackoff < c.Delivery.Backoff {
		add("delivery.backoff must be within [0, delivery.max_backoff]")
	}
	if c.Dispatcher.Shards < 1 {
		add("dispatcher.shards must be at least 1")
	}
	if c.Dispatcher.QueueSize < 1 {
		add("dispatcher.queue_size must be at least 1")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port %d is out of range", c.Server.Port)
	}

	return errors.Join(errs...)
}

// RouteFor returns the route of the first routing.areas entry whose match
// is contained in area, case-insensitively.
func (c *Config) RouteFor(area string) (string, bool) {
	lower := strings.ToLower(area)
	for _, r := range c.Routing.Areas {
		if r.Match != "" && strings.Contains(lower, strings.ToLower(r.Match)) {
			return r.Route, true
		}
	}
	return "", false
}

// IsFireCategory reports whether category contains the fire keyword.
func (c *Config) IsFireCategory(category string) bool {
	kw := strings.ToLower(strings.TrimSpace(c.Routing.FireKeyword))
	return kw != "" && strings.Contains(strings.ToLower(category), kw)
}
