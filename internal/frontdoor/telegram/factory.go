package telegram

import (
	"errors"

	"github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// RegisterFrontdoor registers the polling and webhook ingress factories.
func RegisterFrontdoor() {
	if !frontdoor.IsRegistered(ModePolling) {
		frontdoor.RegisterFactory(frontdoor.Factory{
			Mode:        ModePolling,
			Description: "Bot API long polling (getUpdates)",
			Create:      newPoller,
		})
	}
	if !frontdoor.IsRegistered(ModeWebhook) {
		frontdoor.RegisterFactory(frontdoor.Factory{
			Mode:        ModeWebhook,
			Description: "Bot API webhook (setWebhook)",
			Create:      newWebhook,
		})
	}
}

func newPoller(cfg frontdoor.HandlerConfig) (frontdoor.Ingress, error) {
	if cfg.Client == nil || cfg.Config == nil || cfg.Sink == nil {
		return nil, errors.New("polling ingress needs a client, config and sink")
	}
	tg := cfg.Config.Telegram
	return NewPoller(cfg.Client, Converter{BotUsername: tg.Username}, cfg.Sink, tg.PollTimeout, cfg.Logger), nil
}

func newWebhook(cfg frontdoor.HandlerConfig) (frontdoor.Ingress, error) {
	if cfg.Client == nil || cfg.Config == nil || cfg.Sink == nil {
		return nil, errors.New("webhook ingress needs a client, config and sink")
	}
	tg := cfg.Config.Telegram
	return NewWebhook(cfg.Client, Converter{BotUsername: tg.Username}, cfg.Sink,
		tg.Webhook.Path, tg.Webhook.PublicURL, tg.Webhook.Secret, cfg.Logger), nil
}
