// Package telegram decodes Bot API updates into domain inputs and delivers
// them through long polling or a webhook.
package telegram

import (
	"strconv"
	"strings"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	botapi "github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// Converter turns updates into inputs. BotUsername filters commands
// addressed to other bots in group chats.
type Converter struct {
	BotUsername string
}

// Convert decodes the message of u. It reports false for updates the bot
// does not handle: edits, channel posts, service messages without a sender
// and commands addressed to another bot.
func (c Converter) Convert(u botapi.Update) (domain.Input, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return domain.Input{}, false
	}

	in := domain.Input{
		Sender: domain.Sender{
			ID:        m.From.ID,
			Username:  m.From.Username,
			FirstName: m.From.FirstName,
		},
		ChatID:    m.Chat.ID,
		ChatKind:  domain.ChatKind(m.Chat.Type),
		Text:      m.Text,
		MessageID: m.MessageID,
		Link:      MessageLink(m.Chat, m.MessageID),
	}
	if in.Text == "" {
		in.Text = m.Caption
	}

	if media := largestMedia(m); media != nil {
		in.Media = media
	}
	if m.Location != nil {
		in.Location = &domain.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	}
	if r := m.ReplyToMessage; r != nil && r.IsAutomaticForward {
		in.ReplyToForwardedID = r.ForwardedMessageID()
	}

	if cmd, payload, bot, ok := parseCommand(m.Text); ok {
		if bot != "" && !strings.EqualFold(bot, c.BotUsername) {
			return domain.Input{}, false
		}
		in.IsCommand = true
		in.Command = cmd
		in.Payload = payload
	}
	return in, true
}

// parseCommand splits "/cmd@bot payload". Commands are ASCII letters, digits
// and underscores.
func parseCommand(text string) (cmd, payload, bot string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	cmd, bot, _ = strings.Cut(head, "@")
	if cmd == "" {
		return "", "", "", false
	}
	for _, r := range cmd {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", "", "", false
		}
	}
	return strings.ToLower(cmd), strings.TrimSpace(rest), bot, true
}

// largestMedia picks the attachment of m. Photos arrive as several sizes;
// the largest one is kept.
func largestMedia(m *botapi.Message) *domain.Media {
	switch {
	case m.Animation != nil:
		a := m.Animation
		return &domain.Media{Kind: domain.MediaAnimation, FileID: a.FileID, FileUniqueID: a.FileUniqueID,
			FileSize: a.FileSize, Width: a.Width, Height: a.Height, Duration: a.Duration}
	case m.Video != nil:
		v := m.Video
		return &domain.Media{Kind: domain.MediaVideo, FileID: v.FileID, FileUniqueID: v.FileUniqueID,
			FileSize: v.FileSize, Width: v.Width, Height: v.Height, Duration: v.Duration}
	case len(m.Photo) > 0:
		best := m.Photo[0]
		for _, p := range m.Photo[1:] {
			if p.Width*p.Height > best.Width*best.Height {
				best = p
			}
		}
		return &domain.Media{Kind: domain.MediaPhoto, FileID: best.FileID, FileUniqueID: best.FileUniqueID,
			FileSize: best.FileSize, Width: best.Width, Height: best.Height}
	}
	return nil
}

// MessageLink returns the t.me link of a message in a public chat or a
// supergroup, or "" for private chats.
func MessageLink(chat botapi.Chat, messageID int64) string {
	if chat.Type == string(domain.ChatPrivate) {
		return ""
	}
	id := strconv.FormatInt(messageID, 10)
	if chat.Username != "" {
		return "https://t.me/" + chat.Username + "/" + id
	}
	if s := strconv.FormatInt(chat.ID, 10); strings.HasPrefix(s, "-100") {
		return "https://t.me/c/" + s[len("-100"):] + "/" + id
	}
	return ""
}
