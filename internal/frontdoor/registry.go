// Package frontdoor provides ingress factory registration and the Registry
// that builds the configured ingress.
//
// # Adding a New Ingress
//
// Implement Ingress and expose an explicit registration function that calls
// RegisterFactory. Wire that function from cmd/incidentbot (or tests) so
// registration is explicit instead of relying on init() side effects.
//
// Example in an ingress package:
//
//	func RegisterFrontdoor() {
//	    if frontdoor.IsRegistered(ModeWebhook) {
//	        return
//	    }
//	    frontdoor.RegisterFactory(frontdoor.Factory{
//	        Mode:        ModeWebhook,
//	        Description: "Bot API webhook",
//	        Create:      newWebhook,
//	    })
//	}
package frontdoor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// Sink accepts decoded inbound messages. An error means the message was not
// accepted and the transport may redeliver it.
type Sink func(ctx context.Context, in domain.Input) error

// HandlerRegistration represents an HTTP handler the ingress needs mounted.
type HandlerRegistration struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

// Ingress receives updates from the messaging transport and hands them to
// a Sink.
type Ingress interface {
	// Run blocks until ctx is done.
	Run(ctx context.Context) error

	// Handlers returns the HTTP handlers to mount, if any.
	Handlers() []HandlerRegistration
}

// HandlerConfig contains what an ingress factory needs.
type HandlerConfig struct {
	Client *telegram.Client
	Config *config.Config
	Sink   Sink
	Logger *slog.Logger
}

// Factory builds the ingress for one telegram.mode value.
type Factory struct {
	Mode        string
	Description string
	Create      func(cfg HandlerConfig) (Ingress, error)
}

var (
	factoryMu   sync.RWMutex
	factoryMap  = make(map[string]Factory)
	factoryList []Factory
)

// RegisterFactory registers an ingress factory.
// Panics if a factory for the same mode is already registered.
func RegisterFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Mode == "" {
		panic("frontdoor factory mode cannot be empty")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("frontdoor factory %q must have a Create function", f.Mode))
	}
	if _, exists := factoryMap[f.Mode]; exists {
		panic(fmt.Sprintf("frontdoor factory %q already registered", f.Mode))
	}

	factoryMap[f.Mode] = f
	factoryList = append(factoryList, f)
}

// GetFactory returns the factory for mode, if registered.
func GetFactory(mode string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factoryMap[mode]
	return f, ok
}

// ListFactories returns all registered factories sorted by mode.
func ListFactories() []Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	result := make([]Factory, len(factoryList))
	copy(result, factoryList)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Mode < result[j].Mode
	})
	return result
}

// ListModes returns all registered mode names.
func ListModes() []string {
	factories := ListFactories()
	modes := make([]string, len(factories))
	for i, f := range factories {
		modes[i] = f.Mode
	}
	return modes
}

// IsRegistered returns true if mode is registered.
func IsRegistered(mode string) bool {
	_, ok := GetFactory(mode)
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factoryMap = make(map[string]Factory)
	factoryList = nil
}

// New builds the ingress for mode using the registered factory.
func New(mode string, cfg HandlerConfig) (Ingress, error) {
	f, ok := GetFactory(mode)
	if !ok {
		return nil, fmt.Errorf("unknown ingress mode: %s (registered modes: %v)", mode, ListModes())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return f.Create(cfg)
}
