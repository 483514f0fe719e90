package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor"
	"github.com/iLeonidze/OXPAHA28-bot/internal/server"
	botapi "github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// SecretHeader carries the webhook secret on every delivery.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes bounds a webhook request body.
const maxUpdateBytes = 1 << 20

// WebhookAPI is the part of the Bot API the webhook ingress uses.
type WebhookAPI interface {
	SetWebhook(ctx context.Context, req *botapi.SetWebhookRequest) error
}

// Webhook receives updates pushed by the Bot API.
type Webhook struct {
	api       WebhookAPI
	converter Converter
	sink      frontdoor.Sink
	path      string
	publicURL string
	secret    string
	logger    *slog.Logger
}

// NewWebhook creates the webhook ingress. publicURL is the externally
// reachable base URL; registration is skipped when it is empty.
func NewWebhook(api WebhookAPI, converter Converter, sink frontdoor.Sink, path, publicURL, secret string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		api:       api,
		converter: converter,
		sink:      sink,
		path:      path,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		secret:    secret,
		logger:    logger,
	}
}

// Handlers returns the POST handler for the webhook path.
func (w *Webhook) Handlers() []frontdoor.HandlerRegistration {
	return []frontdoor.HandlerRegistration{
		{Path: w.path, Method: http.MethodPost, Handler: w.ServeHTTP},
	}
}

// Run registers the webhook and waits for ctx.
func (w *Webhook) Run(ctx context.Context) error {
	if w.publicURL != "" {
		err := w.api.SetWebhook(ctx, &botapi.SetWebhookRequest{
			URL:            w.publicURL + w.path,
			SecretToken:    w.secret,
			AllowedUpdates: allowedUpdates,
		})
		if err != nil {
			return err
		}
		w.logger.Info("webhook registered", slog.String("url", w.publicURL+w.path))
	}
	<-ctx.Done()
	return nil
}

// ServeHTTP accepts one update. A sink failure answers 503 so the Bot API
// redelivers the update.
func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if w.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(w.secret)) != 1 {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	var u botapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		server.AddError(r.Context(), err)
		http.Error(rw, "invalid update", http.StatusBadRequest)
		return
	}
	server.AddLogField(r.Context(), "update_id", strconv.FormatInt(u.UpdateID, 10))

	if in, ok := w.converter.Convert(u); ok {
		if err := w.sink(r.Context(), in); err != nil {
			server.AddError(r.Context(), err)
			w.logger.Warn("webhook update not accepted",
				slog.Int64("update_id", u.UpdateID),
				slog.String("error", err.Error()))
			http.Error(rw, "busy", http.StatusServiceUnavailable)
			return
		}
	}
	rw.WriteHeader(http.StatusOK)
}
