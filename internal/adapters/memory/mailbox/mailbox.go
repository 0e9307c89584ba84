package mailbox

import (
	"context"
	"errors"
	"sync"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/mailbox"
)

// Mailbox is an in-memory mailbox used by tests and local runs.
// It is safe for concurrent use.
type Mailbox struct {
	mu     sync.Mutex
	order  []string
	byID   map[string]mailbox.Message
	unread map[string]bool

	// GetErr, when set for an id, is returned by Get for that message.
	GetErr map[string]error
}

func New() *Mailbox {
	return &Mailbox{
		byID:   make(map[string]mailbox.Message),
		unread: make(map[string]bool),
		GetErr: make(map[string]error),
	}
}

// Deliver adds an unread message.
func (m *Mailbox) Deliver(msg mailbox.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[msg.ID]; !ok {
		m.order = append(m.order, msg.ID)
	}
	m.byID[msg.ID] = msg
	m.unread[msg.ID] = true
}

// IsUnread reports whether id is still unread.
func (m *Mailbox) IsUnread(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread[id]
}

func (m *Mailbox) ListUnread(ctx context.Context, max int) ([]string, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0)
	// Newest first, like the provider.
	for i := len(m.order) - 1; i >= 0 && len(out) < max; i-- {
		if id := m.order[i]; m.unread[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *Mailbox) Get(ctx context.Context, id string) (mailbox.Message, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetErr[id]; err != nil {
		return mailbox.Message{}, err
	}
	msg, ok := m.byID[id]
	if !ok {
		return mailbox.Message{}, mailbox.ErrNotFound
	}
	return msg, nil
}

func (m *Mailbox) MarkRead(ctx context.Context, id string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return errors.Join(mailbox.ErrNotFound, errors.New(id))
	}
	m.unread[id] = false
	return nil
}
