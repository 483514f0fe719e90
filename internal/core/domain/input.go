package domain

// ChatKind mirrors the transport's chat types.
type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
	ChatChannel    ChatKind = "channel"
)

// Sender identifies the author of an inbound message as reported by the
// transport.
type Sender struct {
	ID        int64
	Username  string
	FirstName string
}

// Input is one inbound message, already decoded from the transport payload.
type Input struct {
	Sender    Sender
	ChatID    int64
	ChatKind  ChatKind
	Text      string
	Media     *Media
	Location  *Location
	IsCommand bool
	Command   string
	Payload   string

	// MessageID and Link identify the message in its chat.
	MessageID int64
	Link      string
	// ReplyToForwardedID is the channel post id of the automatically
	// forwarded message this one replies to, or zero.
	ReplyToForwardedID int64
}
