// Package incidentbot is the public API for embedding the incident report
// bot in another program.
package incidentbot

import (
	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	fdtelegram "github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor/telegram"
	"github.com/iLeonidze/OXPAHA28-bot/internal/runtime"
)

// Bot is the running bot. See internal/runtime.Bot for full documentation.
type Bot = runtime.Bot

// Config is the bot configuration loaded from config.yaml.
type Config = config.Config

// Option is a functional option for configuring a Bot.
type Option = runtime.Option

// New creates a Bot with the given options.
// Example:
//
//	cfg, err := incidentbot.LoadConfig("config.yaml")
//	...
//	bot, err := incidentbot.New(
//	    incidentbot.WithConfig(cfg),
//	    incidentbot.WithClient(client),
//	)
var New = runtime.New

// LoadConfig reads and validates a configuration file.
var LoadConfig = config.Load

// Announce posts the pinned rules message to the moderation channel.
var Announce = runtime.Announce

var (
	WithConfig        = runtime.WithConfig
	WithClient        = runtime.WithClient
	WithMessenger     = runtime.WithMessenger
	WithSnapshotStore = runtime.WithSnapshotStore
	WithLogger        = runtime.WithLogger
	WithClock         = runtime.WithClock
)

// RegisterBuiltins registers the polling and webhook ingress factories.
// Call it once before New when using WithClient.
func RegisterBuiltins() {
	fdtelegram.RegisterFrontdoor()
}
