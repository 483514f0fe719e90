package telegram

import "encoding/json"

// Response is the envelope wrapping every Bot API result.
type Response struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters explains why a request failed.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

type Message struct {
	MessageID            int64           `json:"message_id"`
	From                 *User           `json:"from,omitempty"`
	Chat                 Chat            `json:"chat"`
	Date                 int64           `json:"date"`
	Text                 string          `json:"text,omitempty"`
	Caption              string          `json:"caption,omitempty"`
	Entities             []MessageEntity `json:"entities,omitempty"`
	Photo                []PhotoSize     `json:"photo,omitempty"`
	Animation            *Animation      `json:"animation,omitempty"`
	Video                *Video          `json:"video,omitempty"`
	Location             *Location       `json:"location,omitempty"`
	ReplyToMessage       *Message        `json:"reply_to_message,omitempty"`
	ForwardOrigin        *MessageOrigin  `json:"forward_origin,omitempty"`
	ForwardFromMessageID int64           `json:"forward_from_message_id,omitempty"`
	IsAutomaticForward   bool            `json:"is_automatic_forward,omitempty"`
}

// ForwardedMessageID returns the id of the original channel post when the
// message was forwarded from a channel, or zero.
func (m *Message) ForwardedMessageID() int64 {
	if m.ForwardOrigin != nil && m.ForwardOrigin.MessageID != 0 {
		return m.ForwardOrigin.MessageID
	}
	return m.ForwardFromMessageID
}

type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// MessageOrigin describes where a forwarded message came from. Only the
// channel variant carries MessageID.
type MessageOrigin struct {
	Type      string `json:"type"`
	Date      int64  `json:"date"`
	Chat      *Chat  `json:"chat,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
}

type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Animation struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Video struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReplyKeyboardMarkup is a custom reply keyboard.
type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard,omitempty"`
	IsPersistent   bool               `json:"is_persistent,omitempty"`
}

type KeyboardButton struct {
	Text string `json:"text"`
}

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// ReplyParameters points a message at the one it answers.
type ReplyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply,omitempty"`
}

// SendMessageRequest holds the sendMessage parameters. ReplyMarkup is a
// *ReplyKeyboardMarkup or an *InlineKeyboardMarkup.
type SendMessageRequest struct {
	ChatID              int64            `json:"chat_id"`
	Text                string           `json:"text"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	ReplyMarkup         any              `json:"reply_markup,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
}

// SendMediaRequest holds the parameters shared by sendPhoto, sendAnimation
// and sendVideo. File is the method's file field name.
type SendMediaRequest struct {
	ChatID              int64            `json:"chat_id"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	ReplyMarkup         any              `json:"reply_markup,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	Photo               string           `json:"photo,omitempty"`
	Animation           string           `json:"animation,omitempty"`
	Video               string           `json:"video,omitempty"`
}

type SendLocationRequest struct {
	ChatID              int64            `json:"chat_id"`
	Latitude            float64          `json:"latitude"`
	Longitude           float64          `json:"longitude"`
	ReplyMarkup         any              `json:"reply_markup,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
}

type GetUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type SetWebhookRequest struct {
	URL                string   `json:"url"`
	SecretToken        string   `json:"secret_token,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
}

type DeleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

type PinChatMessageRequest struct {
	ChatID              int64 `json:"chat_id"`
	MessageID           int64 `json:"message_id"`
	DisableNotification bool  `json:"disable_notification,omitempty"`
}

// ParseModeMarkdownV2 selects MarkdownV2 formatting.
const ParseModeMarkdownV2 = "MarkdownV2"
