package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides; "__" separates nesting levels,
// e.g. INCIDENTBOT_TELEGRAM__TOKEN.
const EnvPrefix = "INCIDENTBOT_"

type Config struct {
	Telegram           TelegramConfig    `koanf:"telegram"`
	Groups             GroupsConfig      `koanf:"groups"`
	ResponsiblePersons []int64           `koanf:"responsible_persons"`
	Keyphrases         KeyphrasesConfig  `koanf:"keyphrases"`
	Routing            RoutingConfig     `koanf:"routing"`
	Ranges             RangesConfig      `koanf:"ranges"`
	Templates          map[string]string `koanf:"messages_templates"`
	Moderation         ModerationConfig  `koanf:"moderation"`
	Storage            StorageConfig     `koanf:"storage"`
	Session            SessionConfig     `koanf:"session"`
	Dedup              DedupConfig       `koanf:"dedup"`
	Delivery           DeliveryConfig    `koanf:"delivery"`
	Dispatcher         DispatcherConfig  `koanf:"dispatcher"`
	Server             ServerConfig      `koanf:"server"`
	Telemetry          TelemetryConfig   `koanf:"telemetry"`
	Log                LogConfig         `koanf:"log"`
}

type TelegramConfig struct {
	Token          string        `koanf:"token"`
	Username       string        `koanf:"username"`
	APIBaseURL     string        `koanf:"api_base_url"`
	Mode           string        `koanf:"mode"` // polling, webhook
	PollTimeout    time.Duration `koanf:"poll_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	Webhook        WebhookConfig `koanf:"webhook"`
}

type WebhookConfig struct {
	Path      string `koanf:"path"`
	Secret    string `koanf:"secret"`
	PublicURL string `koanf:"public_url"`
}

type GroupsConfig struct {
	Main MainGroupConfig `koanf:"main"`
	Chat ChatGroupConfig `koanf:"chat"`
}

// MainGroupConfig is the moderation channel reports are posted to.
type MainGroupConfig struct {
	ID         int64  `koanf:"id"`
	PublicLink string `koanf:"public_link"`
}

// ChatGroupConfig is the discussion group linked to the moderation channel.
type ChatGroupConfig struct {
	ID int64 `koanf:"id"`
}

type KeyphrasesConfig struct {
	IssuesCategories []string           `koanf:"issues_categories"`
	SupportedStreets []string           `koanf:"supported_streets"`
	ProblemAreas     []string           `koanf:"problem_areas"`
	ControlButtons   []string           `koanf:"control_buttons"`
	SpecialButtons   []SpecialButton    `koanf:"special_buttons"`
	GoBack           []string           `koanf:"go_back"`
	GoRestart        []string           `koanf:"go_restart"`
	Confirmation     ConfirmationConfig `koanf:"confirmation"`
}

// SpecialButton is shown on the initial step and answers with a template
// without changing the dialog state.
type SpecialButton struct {
	Label    string `koanf:"label"`
	Match    string `koanf:"match"`
	Template string `koanf:"template"`
}

type ConfirmationConfig struct {
	Send           ActionConfig `koanf:"send"`
	AddPhoto       ActionConfig `koanf:"add_photo"`
	AddDescription ActionConfig `koanf:"add_description"`
	AddLocation    ActionConfig `koanf:"add_location"`
}

// ActionConfig is a confirm-step button and the lowercase phrases that select it.
type ActionConfig struct {
	Label string   `koanf:"label"`
	Match []string `koanf:"match"`
}

type RoutingConfig struct {
	FireKeyword string      `koanf:"fire_keyword"`
	FireArea    string      `koanf:"fire_area"`
	Areas       []AreaRoute `koanf:"areas"`
}

// AreaRoute sends problem areas containing Match down Route.
type AreaRoute struct {
	Match string `koanf:"match"`
	Route string `koanf:"route"` // floor, flat, parking, storeroom, description
}

// Area routes understood by the dialog graph.
const (
	RouteFloor       = "floor"
	RouteFlat        = "flat"
	RouteParking     = "parking"
	RouteStoreroom   = "storeroom"
	RouteDescription = "description"
)

// Range is an inclusive integer range.
type Range struct {
	Min int `koanf:"min"`
	Max int `koanf:"max"`
}

type RangesConfig struct {
	House     Range `koanf:"house"`
	Section   Range `koanf:"section"`
	Floor     Range `koanf:"floor"`
	Flat      Range `koanf:"flat"`
	Storeroom Range `koanf:"storeroom"`
	Parking   Range `koanf:"parking"`
}

type ModerationConfig struct {
	BannedWords   []string `koanf:"banned_words"`
	MaxTextLength int      `koanf:"max_text_length"`
	Scripts       []string `koanf:"scripts"`
}

type StorageConfig struct {
	Type   string            `koanf:"type"` // file, sqlite, memory
	File   FileStorageConfig `koanf:"file"`
	SQLite SQLiteConfig      `koanf:"sqlite"`
}

type FileStorageConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"` // zstd
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type SessionConfig struct {
	FlushInterval time.Duration `koanf:"flush_interval"`
}

type DedupConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// DeliveryConfig bounds retries when posting to the moderation channel.
type DeliveryConfig struct {
	Attempts   int           `koanf:"attempts"`
	Backoff    time.Duration `koanf:"backoff"`
	MaxBackoff time.Duration `koanf:"max_backoff"`
}

type DispatcherConfig struct {
	Shards    int `koanf:"shards"`
	QueueSize int `koanf:"queue_size"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var defaults = map[string]any{
	"telegram.api_base_url":      "https://api.telegram.org",
	"telegram.mode":              "polling",
	"telegram.poll_timeout":      "30s",
	"telegram.request_timeout":   "45s",
	"telegram.webhook.path":      "/telegram/webhook",
	"routing.fire_keyword":       "пожар",
	"routing.fire_area":          "в секции",
	"ranges.house.min":           1,
	"ranges.house.max":           50,
	"ranges.section.min":         1,
	"ranges.section.max":         19,
	"ranges.floor.min":           -1,
	"ranges.floor.max":           30,
	"ranges.flat.min":            1,
	"ranges.flat.max":            700,
	"ranges.storeroom.min":       1,
	"ranges.storeroom.max":       500,
	"ranges.parking.min":         1,
	"ranges.parking.max":         500,
	"moderation.max_text_length": 500,
	"storage.type":               "file",
	"storage.file.path":          "context.yaml",
	"storage.sqlite.path":        "context.db",
	"session.flush_interval":     "10s",
	"dedup.ttl":                  "5m",
	"dedup.prune_interval":       "1m",
	"delivery.attempts":          3,
	"delivery.backoff":           "1s",
	"delivery.max_backoff":       "10s",
	"dispatcher.shards":          8,
	"dispatcher.queue_size":      64,
	"server.port":                8080,
	"telemetry.service_name":     "incidentbot",
	"log.level":                  "info",
	"log.format":                 "json",
}

// DefaultAreaRoutes is used when routing.areas is not configured.
var DefaultAreaRoutes = []AreaRoute{
	{Match: "этаж", Route: RouteFloor},
	{Match: "квартир", Route: RouteFlat},
	{Match: "парк", Route: RouteParking},
	{Match: "кладовк", Route: RouteStoreroom},
	{Match: "двор", Route: RouteDescription},
	{Match: "улиц", Route: RouteDescription},
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the YAML file at path, applies INCIDENTBOT_ environment
// overrides and defaults, and validates the result. A missing file is an
// error: the bot cannot run without its step wording.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Routing.Areas) == 0 {
		cfg.Routing.Areas = append([]AreaRoute(nil), DefaultAreaRoutes...)
	}

	cfg.Telegram.Token = substituteEnvVars(cfg.Telegram.Token)
	cfg.Telegram.Webhook.Secret = substituteEnvVars(cfg.Telegram.Webhook.Secret)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Template returns the named message template.
func (c *Config) Template(name string) string {
	return c.Templates[name]
}

// IsResponsiblePerson reports whether userID may answer reports from the
// discussion group.
func (c *Config) IsResponsiblePerson(userID int64) bool {
	for _, id := range c.ResponsiblePersons {
		if id == userID {
			return true
		}
	}
	return false
}
