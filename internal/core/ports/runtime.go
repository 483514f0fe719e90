// Package ports defines the boundaries between the dialog engine and its
// collaborators: the messaging transport, the moderation channel and the
// snapshot storage.
package ports

import (
	"context"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// SendOptions tunes a single outbound call.
type SendOptions struct {
	Markdown bool
	Keyboard domain.Keyboard
	// ReplyTo is a message id in the same chat, zero for none.
	ReplyTo int64
	Silent  bool
	// Links is rendered as an inline keyboard, one button per row. It takes
	// precedence over Keyboard.
	Links []domain.Link
}

// Messenger is the messaging transport. Each call is a single
// request/response; the returned value is the transport's message id.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) (int64, error)
	SendMedia(ctx context.Context, chatID int64, media domain.Media, opts SendOptions) (int64, error)
	SendLocation(ctx context.Context, chatID int64, loc domain.Location, opts SendOptions) (int64, error)
}

// Publisher posts finalized submissions to the moderation channel and
// returns the channel message id used to build the public reference link.
type Publisher interface {
	Publish(ctx context.Context, sub *domain.Submission) (int64, error)
}
