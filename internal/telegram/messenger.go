package telegram

import (
	"context"
	"fmt"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

var _ ports.Messenger = (*Client)(nil)

// SendText sends text to chatID and returns the new message id.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts ports.SendOptions) (int64, error) {
	req := &SendMessageRequest{
		ChatID:              chatID,
		Text:                text,
		ReplyMarkup:         replyMarkup(opts),
		ReplyParameters:     replyParameters(opts),
		DisableNotification: opts.Silent,
	}
	if opts.Markdown {
		req.ParseMode = ParseModeMarkdownV2
	}
	m, err := c.SendMessage(ctx, req)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// SendMedia resends an already uploaded attachment by file id.
func (c *Client) SendMedia(ctx context.Context, chatID int64, media domain.Media, opts ports.SendOptions) (int64, error) {
	req := &SendMediaRequest{
		ChatID:              chatID,
		ReplyMarkup:         replyMarkup(opts),
		ReplyParameters:     replyParameters(opts),
		DisableNotification: opts.Silent,
	}

	var send func(context.Context, *SendMediaRequest) (*Message, error)
	switch media.Kind {
	case domain.MediaPhoto:
		req.Photo, send = media.FileID, c.SendPhoto
	case domain.MediaAnimation:
		req.Animation, send = media.FileID, c.SendAnimation
	case domain.MediaVideo:
		req.Video, send = media.FileID, c.SendVideo
	default:
		return 0, fmt.Errorf("unsupported media kind %q", media.Kind)
	}

	m, err := send(ctx, req)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// SendLocation sends a map point.
func (c *Client) SendLocation(ctx context.Context, chatID int64, loc domain.Location, opts ports.SendOptions) (int64, error) {
	m, err := c.SendLocationMessage(ctx, &SendLocationRequest{
		ChatID:              chatID,
		Latitude:            loc.Latitude,
		Longitude:           loc.Longitude,
		ReplyMarkup:         replyMarkup(opts),
		ReplyParameters:     replyParameters(opts),
		DisableNotification: opts.Silent,
	})
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

// replyMarkup returns nil when opts carry no keyboard, so the chat keeps the
// keyboard it already shows.
func replyMarkup(opts ports.SendOptions) any {
	if len(opts.Links) > 0 {
		kb := &InlineKeyboardMarkup{}
		for _, l := range opts.Links {
			kb.InlineKeyboard = append(kb.InlineKeyboard, []InlineKeyboardButton{{Text: l.Text, URL: l.URL}})
		}
		return kb
	}
	if len(opts.Keyboard) == 0 {
		return nil
	}
	kb := &ReplyKeyboardMarkup{ResizeKeyboard: true, IsPersistent: true}
	for _, row := range opts.Keyboard {
		buttons := make([]KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, KeyboardButton{Text: label})
		}
		kb.Keyboard = append(kb.Keyboard, buttons)
	}
	return kb
}

func replyParameters(opts ports.SendOptions) *ReplyParameters {
	if opts.ReplyTo == 0 {
		return nil
	}
	return &ReplyParameters{MessageID: opts.ReplyTo, AllowSendingWithoutReply: true}
}
