package mailbox

import (
	"context"
	"errors"
)

// ErrNotFound indicates the message no longer exists in the mailbox.
var ErrNotFound = errors.New("message not found")

// Message is a decoded inbound email.
// PlainText and HTML hold the decoded bodies of the respective MIME parts (either may be empty).
type Message struct {
	ID        string
	From      string
	Subject   string
	PlainText string
	HTML      string
}

// Mailbox is the subset of a mail provider API used by the import watcher.
type Mailbox interface {
	// ListUnread returns up to max unread message ids, newest first.
	ListUnread(ctx context.Context, max int) ([]string, error)
	Get(ctx context.Context, id string) (Message, error)
	MarkRead(ctx context.Context, id string) error
}
