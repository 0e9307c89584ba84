package pusher

import (
	"context"
	"sync"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/pusher"
)

// Recorder is an in-memory pusher.Pusher that keeps every batch it receives.
// FailChunk, when non-nil, decides per call (0-based) whether Send fails.
type Recorder struct {
	mu      sync.Mutex
	batches [][]pusher.Message

	FailChunk func(call int) error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(ctx context.Context, msgs []pusher.Message) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	call := len(r.batches)
	r.batches = append(r.batches, append([]pusher.Message(nil), msgs...))
	if r.FailChunk != nil {
		return r.FailChunk(call)
	}
	return nil
}

// Batches returns every batch received so far, failed ones included.
func (r *Recorder) Batches() [][]pusher.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]pusher.Message, len(r.batches))
	copy(out, r.batches)
	return out
}

// Messages flattens Batches.
func (r *Recorder) Messages() []pusher.Message {
	var out []pusher.Message
	for _, b := range r.Batches() {
		out = append(out, b...)
	}
	return out
}
