package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// SendPinCommand posts the pinned rules message to the moderation channel.
const SendPinCommand = "send_pin_message"

// handle routes one input: private chats drive the dialog, the discussion
// group carries replies from responsible persons, everything else is
// dropped.
func (b *Bot) handle(ctx context.Context, in domain.Input) {
	logger := b.logger.With(
		slog.String("correlation_id", CorrelationID(ctx)),
		slog.Int64("user_id", in.Sender.ID))

	switch {
	case in.ChatKind == domain.ChatPrivate:
		if in.IsCommand && in.Command == SendPinCommand {
			b.announceFor(ctx, in, logger)
			return
		}
		b.converse(ctx, in, logger)
	case b.cfg.Groups.Chat.ID != 0 && in.ChatID == b.cfg.Groups.Chat.ID:
		b.relay(ctx, in, logger)
	default:
		logger.Debug("ignoring message",
			slog.Int64("chat_id", in.ChatID),
			slog.String("chat_kind", string(in.ChatKind)))
	}
}

func (b *Bot) converse(ctx context.Context, in domain.Input, logger *slog.Logger) {
	unlock := b.sessions.Lock(in.Sender.ID)
	defer unlock()

	sess := b.sessions.Get(in.Sender.ID)
	next, res := b.engine.Transition(ctx, sess, in)
	if next.Dirty {
		b.sessions.Put(in.Sender.ID, next)
	}

	logger.Debug("dialog transition",
		slog.String("from", string(sess.CurrentStep)),
		slog.String("to", string(next.CurrentStep)),
		slog.String("outcome", string(res.Outcome)))

	b.courier.Deliver(ctx, res.Effects)
}

// relay forwards a responsible person's reply to a published report back
// to the report's author.
func (b *Bot) relay(ctx context.Context, in domain.Input, logger *slog.Logger) {
	if in.ReplyToForwardedID == 0 || !b.cfg.IsResponsiblePerson(in.Sender.ID) || in.Text == "" {
		return
	}

	author, ok := b.sessions.FindBySubmission(in.ReplyToForwardedID)
	if !ok {
		logger.Debug("reply to unknown report", slog.Int64("submission_id", in.ReplyToForwardedID))
		return
	}

	text := b.cfg.Template(config.TemplateResponsibleReply) + in.Text
	if in.Link != "" {
		text += "\n\n" + in.Link
	}
	if _, err := b.messenger.SendText(ctx, author, text, ports.SendOptions{}); err != nil {
		logger.Warn("failed to relay reply",
			slog.Int64("author_id", author),
			slog.Int64("submission_id", in.ReplyToForwardedID),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("reply relayed",
		slog.Int64("author_id", author),
		slog.Int64("submission_id", in.ReplyToForwardedID))
}

func (b *Bot) announceFor(ctx context.Context, in domain.Input, logger *slog.Logger) {
	if !b.cfg.IsResponsiblePerson(in.Sender.ID) {
		logger.Debug("pin command from non-responsible user")
		return
	}
	id, err := Announce(ctx, b.messenger, b.cfg)
	if err != nil {
		logger.Error("failed to post pin message", slog.String("error", err.Error()))
		return
	}
	logger.Info("pin message posted", slog.Int64("message_id", id))
}

// Announce posts the rules message with a button opening the bot to the
// moderation channel and returns its message id.
func Announce(ctx context.Context, m ports.Messenger, cfg *config.Config) (int64, error) {
	if cfg.Telegram.Username == "" {
		return 0, errors.New("telegram.username is required to link the bot")
	}

	text := cfg.Template(config.TemplatePinMessage) + "\n\n" + cfg.Template(config.TemplateRules)
	link := domain.Link{
		Text: cfg.Template(config.TemplatePinMessageButton),
		URL:  StartLink(cfg.Telegram.Username),
	}
	return m.SendText(ctx, cfg.Groups.Main.ID, text, ports.SendOptions{Links: []domain.Link{link}})
}

// StartLink opens a private chat with the bot from the channel.
func StartLink(username string) string {
	return "tg://resolve?domain=" + url.QueryEscape(username) + "&start=from_channel"
}
