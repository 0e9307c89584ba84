package pusher

import "context"

// MaxChunkSize is the largest batch the push relay accepts in one request.
const MaxChunkSize = 100

// Message is one push notification addressed to a device token.
type Message struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

// Pusher sends a batch of at most MaxChunkSize messages in one request.
type Pusher interface {
	Send(ctx context.Context, msgs []Message) error
}
