package telegram

import (
	"testing"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	botapi "github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

func privateMessage(text string) *botapi.Message {
	return &botapi.Message{
		MessageID: 7,
		From:      &botapi.User{ID: 42, FirstName: "Иван", Username: "ivan"},
		Chat:      botapi.Chat{ID: 42, Type: "private", Username: "ivan"},
		Text:      text,
	}
}

func TestConverter_Convert(t *testing.T) {
	conv := Converter{BotUsername: "oxpaha28_bot"}

	tests := []struct {
		name   string
		update botapi.Update
		wantOK bool
		check  func(t *testing.T, in domain.Input)
	}{
		{
			name:   "text",
			update: botapi.Update{UpdateID: 1, Message: privateMessage("💧 Протечка")},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.Text != "💧 Протечка" || in.IsCommand {
					t.Errorf("Input = %+v", in)
				}
				if in.Sender.ID != 42 || in.ChatKind != domain.ChatPrivate || in.MessageID != 7 {
					t.Errorf("Input identity = %+v", in)
				}
				if in.Link != "" {
					t.Errorf("Link = %q, want none for private chats", in.Link)
				}
			},
		},
		{
			name:   "start with payload",
			update: botapi.Update{Message: privateMessage("/start from_channel")},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if !in.IsCommand || in.Command != "start" || in.Payload != "from_channel" {
					t.Errorf("Input = %+v, want start command with payload", in)
				}
			},
		},
		{
			name:   "command addressed to this bot",
			update: botapi.Update{Message: privateMessage("/Start@OXPAHA28_bot")},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if !in.IsCommand || in.Command != "start" {
					t.Errorf("Input = %+v, want start command", in)
				}
			},
		},
		{
			name:   "command addressed to another bot",
			update: botapi.Update{Message: privateMessage("/start@other_bot")},
		},
		{
			name:   "slash text is not a command",
			update: botapi.Update{Message: privateMessage("/ на этаже")},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.IsCommand {
					t.Errorf("Input = %+v, want plain text", in)
				}
			},
		},
		{
			name: "largest photo with caption",
			update: botapi.Update{Message: func() *botapi.Message {
				m := privateMessage("")
				m.Caption = "подпись"
				m.Photo = []botapi.PhotoSize{
					{FileID: "small", Width: 90, Height: 67},
					{FileID: "large", Width: 1280, Height: 960, FileSize: 2048},
					{FileID: "medium", Width: 320, Height: 240},
				}
				return m
			}()},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.Media == nil || in.Media.FileID != "large" || in.Media.Kind != domain.MediaPhoto {
					t.Errorf("Media = %+v, want large photo", in.Media)
				}
				if in.Text != "подпись" {
					t.Errorf("Text = %q, want caption", in.Text)
				}
			},
		},
		{
			name: "video",
			update: botapi.Update{Message: func() *botapi.Message {
				m := privateMessage("")
				m.Video = &botapi.Video{FileID: "v", Duration: 12}
				return m
			}()},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.Media == nil || in.Media.Kind != domain.MediaVideo || in.Media.Duration != 12 {
					t.Errorf("Media = %+v, want video", in.Media)
				}
			},
		},
		{
			name: "animation",
			update: botapi.Update{Message: func() *botapi.Message {
				m := privateMessage("")
				m.Animation = &botapi.Animation{FileID: "gif"}
				return m
			}()},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.Media == nil || in.Media.Kind != domain.MediaAnimation {
					t.Errorf("Media = %+v, want animation", in.Media)
				}
			},
		},
		{
			name: "location",
			update: botapi.Update{Message: func() *botapi.Message {
				m := privateMessage("")
				m.Location = &botapi.Location{Latitude: 55.7, Longitude: 37.6}
				return m
			}()},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.Location == nil || in.Location.Latitude != 55.7 {
					t.Errorf("Location = %+v", in.Location)
				}
			},
		},
		{
			name: "reply to forwarded channel post",
			update: botapi.Update{Message: &botapi.Message{
				MessageID: 90,
				From:      &botapi.User{ID: 500, FirstName: "Ответственный"},
				Chat:      botapi.Chat{ID: -1001000000002, Type: "supergroup"},
				Text:      "Приняли, выезжаем",
				ReplyToMessage: &botapi.Message{
					MessageID:          80,
					IsAutomaticForward: true,
					ForwardOrigin:      &botapi.MessageOrigin{Type: "channel", MessageID: 15},
				},
			}},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.ReplyToForwardedID != 15 {
					t.Errorf("ReplyToForwardedID = %d, want 15", in.ReplyToForwardedID)
				}
				if in.Link != "https://t.me/c/1000000002/90" {
					t.Errorf("Link = %q", in.Link)
				}
				if in.ChatKind != domain.ChatSupergroup {
					t.Errorf("ChatKind = %v, want supergroup", in.ChatKind)
				}
			},
		},
		{
			name: "reply to a plain message",
			update: botapi.Update{Message: &botapi.Message{
				From:           &botapi.User{ID: 500},
				Chat:           botapi.Chat{ID: -1001000000002, Type: "supergroup", Username: "oxpaha28_chat"},
				MessageID:      3,
				ReplyToMessage: &botapi.Message{MessageID: 2, ForwardFromMessageID: 15},
			}},
			wantOK: true,
			check: func(t *testing.T, in domain.Input) {
				if in.ReplyToForwardedID != 0 {
					t.Errorf("ReplyToForwardedID = %d, want 0", in.ReplyToForwardedID)
				}
				if in.Link != "https://t.me/oxpaha28_chat/3" {
					t.Errorf("Link = %q", in.Link)
				}
			},
		},
		{name: "no message", update: botapi.Update{UpdateID: 5}},
		{name: "no sender", update: botapi.Update{Message: &botapi.Message{Chat: botapi.Chat{ID: -1, Type: "channel"}}}},
		{
			name: "bot sender",
			update: botapi.Update{Message: &botapi.Message{
				From: &botapi.User{ID: 1, IsBot: true},
				Chat: botapi.Chat{ID: 1, Type: "private"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := conv.Convert(tt.update)
			if ok != tt.wantOK {
				t.Fatalf("Convert() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.check != nil {
				tt.check(t, in)
			}
		})
	}
}
