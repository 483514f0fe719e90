package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigPath = "testdata/config.yaml"

func TestLoad(t *testing.T) {
	t.Run("example file", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

		cfg, err := Load(testConfigPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Telegram.Token != "123:abc" {
			t.Errorf("Load() token = %q, want %q", cfg.Telegram.Token, "123:abc")
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Groups.Main.ID != -1001000000001 {
			t.Errorf("Load() main group = %v, want -1001000000001", cfg.Groups.Main.ID)
		}
		if cfg.Session.FlushInterval != 10*time.Second {
			t.Errorf("Load() flush interval = %v, want 10s", cfg.Session.FlushInterval)
		}
		if cfg.Ranges.Floor != (Range{Min: -1, Max: 30}) {
			t.Errorf("Load() floor range = %+v, want {-1 30}", cfg.Ranges.Floor)
		}
		if len(cfg.Keyphrases.SpecialButtons) != 2 {
			t.Errorf("Load() special buttons = %d, want 2", len(cfg.Keyphrases.SpecialButtons))
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		t.Setenv("INCIDENTBOT_SERVER__PORT", "9000")

		cfg, err := Load(testConfigPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("Load() error = nil, want error for missing file")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeMinimalConfig(t, "")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Telegram.Mode != "polling" {
			t.Errorf("Load() mode = %q, want polling", cfg.Telegram.Mode)
		}
		if cfg.Dedup.TTL != 5*time.Minute {
			t.Errorf("Load() dedup ttl = %v, want 5m", cfg.Dedup.TTL)
		}
		if cfg.Ranges.House != (Range{Min: 1, Max: 50}) {
			t.Errorf("Load() house range = %+v, want {1 50}", cfg.Ranges.House)
		}
		if len(cfg.Routing.Areas) != len(DefaultAreaRoutes) {
			t.Errorf("Load() area routes = %d, want %d", len(cfg.Routing.Areas), len(DefaultAreaRoutes))
		}
		if cfg.Storage.Type != "file" {
			t.Errorf("Load() storage type = %q, want file", cfg.Storage.Type)
		}
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		path := writeMinimalConfig(t, "storage:\n  type: redis\n")

		_, err := Load(path)
		if err == nil {
			t.Fatal("Load() error = nil, want validation error")
		}
		if !strings.Contains(err.Error(), "storage.type") {
			t.Errorf("Load() error = %v, want mention of storage.type", err)
		}
	})
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load(testConfigPath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing template",
			mutate: func(c *Config) { delete(c.Templates, TemplateFallback) },
			want:   "messages_templates.fallback",
		},
		{
			name:   "empty categories",
			mutate: func(c *Config) { c.Keyphrases.IssuesCategories = nil },
			want:   "keyphrases.issues_categories",
		},
		{
			name:   "inverted range",
			mutate: func(c *Config) { c.Ranges.Flat = Range{Min: 10, Max: 1} },
			want:   "ranges.flat",
		},
		{
			name:   "unrouted area",
			mutate: func(c *Config) { c.Keyphrases.ProblemAreas = append(c.Keyphrases.ProblemAreas, "На крыше") },
			want:   "На крыше",
		},
		{
			name:   "unknown route",
			mutate: func(c *Config) { c.Routing.Areas[0].Route = "roof" },
			want:   "roof",
		},
		{
			name: "webhook without path",
			mutate: func(c *Config) {
				c.Telegram.Mode = "webhook"
				c.Telegram.Webhook.Path = ""
			},
			want: "telegram.webhook.path",
		},
		{
			name: "webhook without server",
			mutate: func(c *Config) {
				c.Telegram.Mode = "webhook"
				c.Server.Port = 0
			},
			want: "server.port",
		},
		{
			name:   "special button template missing",
			mutate: func(c *Config) { delete(c.Templates, "contacts") },
			want:   "contacts",
		},
		{
			name:   "zero flush interval",
			mutate: func(c *Config) { c.Session.FlushInterval = 0 },
			want:   "session.flush_interval",
		},
		{
			name:   "no delivery attempts",
			mutate: func(c *Config) { c.Delivery.Attempts = 0 },
			want:   "delivery.attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRouteFor(t *testing.T) {
	cfg := &Config{Routing: RoutingConfig{Areas: DefaultAreaRoutes}}

	tests := []struct {
		area   string
		want   string
		wantOK bool
	}{
		{"На этаже", RouteFloor, true},
		{"В квартире", RouteFlat, true},
		{"В КЛАДОВКЕ", RouteStoreroom, true},
		{"На парковке", RouteParking, true},
		{"Во дворе", RouteDescription, true},
		{"На крыше", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.area, func(t *testing.T) {
			got, ok := cfg.RouteFor(tt.area)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("RouteFor(%q) = %q, %v, want %q, %v", tt.area, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsFireCategory(t *testing.T) {
	cfg := &Config{Routing: RoutingConfig{FireKeyword: "пожар"}}

	if !cfg.IsFireCategory("🔥 Пожар") {
		t.Error("IsFireCategory(\"🔥 Пожар\") = false, want true")
	}
	if cfg.IsFireCategory("💧 Протечка") {
		t.Error("IsFireCategory(\"💧 Протечка\") = true, want false")
	}
	if (&Config{}).IsFireCategory("Пожар") {
		t.Error("IsFireCategory() with empty keyword = true, want false")
	}
}

func TestIsResponsiblePerson(t *testing.T) {
	cfg := &Config{ResponsiblePersons: []int64{7, 9}}

	if !cfg.IsResponsiblePerson(9) {
		t.Error("IsResponsiblePerson(9) = false, want true")
	}
	if cfg.IsResponsiblePerson(8) {
		t.Error("IsResponsiblePerson(8) = true, want false")
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR_FOR_TEST}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// writeMinimalConfig writes the example config with its tunables stripped
// so defaults apply, followed by extra.
func writeMinimalConfig(t *testing.T, extra string) string {
	t.Helper()

	raw, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var kept []string
	skipping := false
	for _, line := range strings.Split(string(raw), "\n") {
		top := line != "" && line[0] != ' ' && line[0] != '#'
		if top {
			key := strings.TrimSuffix(strings.Fields(line)[0], ":")
			switch key {
			case "routing", "ranges", "storage", "session", "dedup", "delivery", "dispatcher", "server", "telemetry", "log":
				skipping = true
				continue
			}
			skipping = false
		}
		if !skipping {
			kept = append(kept, line)
		}
	}

	content := strings.Join(kept, "\n") + "\n" + extra
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
