package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// Sent is one call recorded by Messenger.
type Sent struct {
	ChatID    int64
	MessageID int64
	Kind      domain.EffectKind
	Text      string
	Media     *domain.Media
	Location  *domain.Location
	Opts      ports.SendOptions
}

// Messenger is an in-memory ports.Messenger. Message ids are assigned
// sequentially from 1000.
type Messenger struct {
	mu     sync.Mutex
	nextID int64
	sent   []Sent
	// failures makes the next n calls fail with ErrSendFailed.
	failures int
}

// ErrSendFailed is returned by Messenger while failures are pending.
var ErrSendFailed = errors.New("send failed")

var _ ports.Messenger = (*Messenger)(nil)

func NewMessenger() *Messenger {
	return &Messenger{nextID: 1000}
}

// FailNext makes the next n calls fail.
func (m *Messenger) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *Messenger) record(ctx context.Context, s Sent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures > 0 {
		m.failures--
		return 0, ErrSendFailed
	}
	m.nextID++
	s.MessageID = m.nextID
	m.sent = append(m.sent, s)
	return s.MessageID, nil
}

func (m *Messenger) SendText(ctx context.Context, chatID int64, text string, opts ports.SendOptions) (int64, error) {
	return m.record(ctx, Sent{ChatID: chatID, Kind: domain.EffectText, Text: text, Opts: opts})
}

func (m *Messenger) SendMedia(ctx context.Context, chatID int64, media domain.Media, opts ports.SendOptions) (int64, error) {
	return m.record(ctx, Sent{ChatID: chatID, Kind: domain.EffectMedia, Media: &media, Opts: opts})
}

func (m *Messenger) SendLocation(ctx context.Context, chatID int64, loc domain.Location, opts ports.SendOptions) (int64, error) {
	return m.record(ctx, Sent{ChatID: chatID, Kind: domain.EffectLocation, Location: &loc, Opts: opts})
}

// Sent returns a copy of every successful call.
func (m *Messenger) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// SentTo returns the successful calls addressed to chatID.
func (m *Messenger) SentTo(chatID int64) []Sent {
	var out []Sent
	for _, s := range m.Sent() {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Publisher is an in-memory ports.Publisher returning sequential ids from 1.
type Publisher struct {
	mu          sync.Mutex
	nextID      int64
	submissions []*domain.Submission
	err         error
}

var _ ports.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, sub *domain.Submission) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return 0, p.err
	}
	p.nextID++
	p.submissions = append(p.submissions, sub)
	return p.nextID, nil
}

// SetErr makes subsequent Publish calls fail with err, or succeed when nil.
func (p *Publisher) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Submissions returns every published submission.
func (p *Publisher) Submissions() []*domain.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Submission(nil), p.submissions...)
}
