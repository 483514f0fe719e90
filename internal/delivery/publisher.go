package delivery

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// Publisher posts submissions to the moderation channel.
type Publisher struct {
	messenger ports.Messenger
	chatID    int64
	retry     *Retrier
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher creates a publisher posting to chatID.
func NewPublisher(messenger ports.Messenger, chatID int64, retry *Retrier, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if retry == nil {
		retry = NewRetrier(0, 0, 0, logger)
	}
	return &Publisher{
		messenger: messenger,
		chatID:    chatID,
		retry:     retry,
		logger:    logger,
		tracer:    otel.Tracer("github.com/iLeonidze/OXPAHA28-bot/internal/delivery"),
	}
}

// Publish sends the report text, then the attachment and location as silent
// replies to it. It returns the report's message id. Only the report itself
// must succeed; attachment failures are logged.
func (p *Publisher) Publish(ctx context.Context, sub *domain.Submission) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "delivery.publish",
		trace.WithAttributes(
			attribute.Int64("author_id", sub.AuthorID),
			attribute.Int64("chat_id", p.chatID),
		))
	defer span.End()

	var id int64
	err := p.retry.Send(ctx, "publish report", func(ctx context.Context) error {
		var err error
		id, err = p.messenger.SendText(ctx, p.chatID, sub.Text, ports.SendOptions{Markdown: true})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("message_id", id))

	reply := ports.SendOptions{ReplyTo: id, Silent: true}
	if sub.Media != nil {
		media := *sub.Media
		err := p.retry.Send(ctx, "publish media", func(ctx context.Context) error {
			_, err := p.messenger.SendMedia(ctx, p.chatID, media, reply)
			return err
		})
		if err != nil {
			p.logger.Error("failed to attach media to report",
				slog.Int64("message_id", id),
				slog.String("error", err.Error()))
		}
	}
	if sub.Location != nil {
		loc := *sub.Location
		err := p.retry.Send(ctx, "publish location", func(ctx context.Context) error {
			_, err := p.messenger.SendLocation(ctx, p.chatID, loc, reply)
			return err
		})
		if err != nil {
			p.logger.Error("failed to attach location to report",
				slog.Int64("message_id", id),
				slog.String("error", err.Error()))
		}
	}
	return id, nil
}
