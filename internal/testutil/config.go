// Package testutil holds helpers shared by package tests: a complete bot
// configuration, fake transports and VCR cassettes for the Bot API.
package testutil

import (
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
)

// Labels used by Config.
const (
	CategoryFire    = "🔥 Пожар"
	CategoryLeak    = "💧 Протечка"
	CategoryTrash   = "🗑 Мусор"
	StreetLenina    = "Ленина"
	StreetSadovaya  = "Садовая"
	AreaFloor       = "На этаже"
	AreaFlat        = "В квартире"
	AreaStoreroom   = "В кладовке"
	AreaParking     = "На парковке"
	AreaYard        = "Во дворе"
	ButtonBack      = "⬅️ Назад"
	ButtonRestart   = "🔄 Заново"
	ButtonRules     = "📖 Правила"
	ButtonContacts  = "📞 Контакты"
	ButtonPhoto     = "📷 Добавить фото"
	ButtonDescr     = "✏️ Добавить описание"
	ButtonLocation  = "📍 Добавить геопозицию"
	ButtonSend      = "✅ Отправить"
	BannedWord      = "дурак"
	MainGroupID     = int64(-1001000000001)
	ChatGroupID     = int64(-1001000000002)
	PublicLink      = "https://t.me/oxpaha28"
	ResponsibleUser = int64(500)
)

// Config returns a complete, valid configuration. Each call returns a new
// value, so tests may modify it.
func Config() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{
			Token:          ReplayToken,
			Username:       "oxpaha28_bot",
			APIBaseURL:     "https://api.telegram.org",
			Mode:           "polling",
			PollTimeout:    time.Second,
			RequestTimeout: 5 * time.Second,
			Webhook:        config.WebhookConfig{Path: "/telegram/webhook", Secret: "s3cret"},
		},
		Groups: config.GroupsConfig{
			Main: config.MainGroupConfig{ID: MainGroupID, PublicLink: PublicLink},
			Chat: config.ChatGroupConfig{ID: ChatGroupID},
		},
		ResponsiblePersons: []int64{ResponsibleUser},
		Keyphrases: config.KeyphrasesConfig{
			IssuesCategories: []string{CategoryFire, CategoryLeak, CategoryTrash},
			SupportedStreets: []string{StreetLenina, StreetSadovaya},
			ProblemAreas:     []string{AreaFloor, AreaFlat, AreaStoreroom, AreaParking, AreaYard},
			ControlButtons:   []string{ButtonBack, ButtonRestart},
			SpecialButtons: []config.SpecialButton{
				{Label: ButtonRules, Match: "правила", Template: config.TemplateRules},
				{Label: ButtonContacts, Match: "контакты", Template: "contacts"},
			},
			GoBack:    []string{"назад"},
			GoRestart: []string{"заново"},
			Confirmation: config.ConfirmationConfig{
				AddPhoto:       config.ActionConfig{Label: ButtonPhoto, Match: []string{"фото"}},
				AddDescription: config.ActionConfig{Label: ButtonDescr, Match: []string{"описание"}},
				AddLocation:    config.ActionConfig{Label: ButtonLocation, Match: []string{"геопозиц"}},
				Send:           config.ActionConfig{Label: ButtonSend, Match: []string{"отправить"}},
			},
		},
		Routing: config.RoutingConfig{
			FireKeyword: "пожар",
			FireArea:    "в секции",
			Areas:       append([]config.AreaRoute(nil), config.DefaultAreaRoutes...),
		},
		Ranges: config.RangesConfig{
			House:     config.Range{Min: 1, Max: 50},
			Section:   config.Range{Min: 1, Max: 19},
			Floor:     config.Range{Min: -1, Max: 30},
			Flat:      config.Range{Min: 1, Max: 700},
			Storeroom: config.Range{Min: 1, Max: 500},
			Parking:   config.Range{Min: 1, Max: 500},
		},
		Templates: map[string]string{
			config.TemplateWelcome:               "welcome",
			config.TemplateStart:                 "prompt start",
			config.TemplateSelectStreet:          "prompt street",
			config.TemplateSelectHouseNumber:     "prompt house",
			config.TemplateSelectProblemArea:     "prompt area",
			config.TemplateSelectSectionNumber:   "prompt section",
			config.TemplateSelectFloorNumber:     "prompt floor",
			config.TemplateSelectFlatNumber:      "prompt flat",
			config.TemplateSelectStoreroomNumber: "prompt storeroom",
			config.TemplateSelectParkingNumber:   "prompt parking",
			config.TemplateSpecifyDescription:    "prompt description",
			config.TemplateConfirmRequest:        "Check the report.",
			config.TemplateUploadPhoto:           "prompt photo",
			config.TemplateAddDescription:        "prompt add description",
			config.TemplateShareLocation:         "prompt location",
			config.TemplateFallback:              "fallback",
			config.TemplateContentRejected:       "rejected",
			config.TemplateRequest:               "*{type}*\nГде: {area}\nАдрес: {address}\n{description}\nАвтор: {username}\n",
			config.TemplateSuccess:               "published {message_link}",
			config.TemplateDuplicate:             "duplicate {message_link}",
			config.TemplateSubmitFailed:          "submit failed",
			config.TemplateFireHint:              "call 112",
			config.TemplateResponsibleReply:      "reply: ",
			config.TemplatePinMessage:            "pin",
			config.TemplatePinMessageButton:      "open bot",
			config.TemplateRules:                 "rules",
			"contacts":                           "contacts",
		},
		Moderation: config.ModerationConfig{
			BannedWords:   []string{BannedWord},
			MaxTextLength: 500,
			Scripts:       []string{"Cyrillic"},
		},
		Storage:    config.StorageConfig{Type: "memory"},
		Session:    config.SessionConfig{FlushInterval: 10 * time.Millisecond},
		Dedup:      config.DedupConfig{TTL: 5 * time.Minute, PruneInterval: 10 * time.Millisecond},
		Delivery:   config.DeliveryConfig{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond},
		Dispatcher: config.DispatcherConfig{Shards: 4, QueueSize: 16},
		Server:     config.ServerConfig{Port: 0},
		Log:        config.LogConfig{Level: "debug", Format: "text"},
	}
}
