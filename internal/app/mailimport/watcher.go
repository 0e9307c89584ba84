package mailimport

import (
	"context"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/mailbox"
)

// JobName names the scheduler job and its overlap lock.
const JobName = "mail-import"

const defaultBatchSize = 10

// UserFinder resolves a sender address to a registered user.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
}

// TripCreator stores a trip built from an imported message.
type TripCreator interface {
	CreateImported(ctx context.Context, owner domain.UserID, flights []domain.Flight, hotels []domain.Hotel) (domain.Trip, error)
}

type Options struct {
	// BatchSize caps how many unread messages one cycle looks at.
	BatchSize int
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
}

// Watcher turns confirmation emails into trips, one polling cycle at a time.
type Watcher struct {
	mbox    mailbox.Mailbox
	users   UserFinder
	trips   TripCreator
	batch   int
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewWatcher(mbox mailbox.Mailbox, users UserFinder, trips TripCreator, opts Options) *Watcher {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Watcher{
		mbox:    mbox,
		users:   users,
		trips:   trips,
		batch:   batch,
		metrics: opts.Metrics,
		log:     opts.Log.With().Str("job", JobName).Logger(),
	}
}

// Summary counts what one cycle did with each listed message.
type Summary struct {
	Listed        int
	Imported      int
	UnknownSender int
	NoData        int
	Failed        int
}

type outcome string

const (
	outcomeImported      outcome = "imported"
	outcomeUnknownSender outcome = "unknown_sender"
	outcomeNoData        outcome = "no_data"
	outcomeFailed        outcome = "failed"
)

// RunCycle processes one batch of unread messages. Only a failure to list the mailbox is
// returned; per-message problems are logged and counted.
func (w *Watcher) RunCycle(ctx context.Context) (Summary, error) {
	ids, err := w.mbox.ListUnread(ctx, w.batch)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Listed: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		switch w.handle(ctx, id) {
		case outcomeImported:
			sum.Imported++
		case outcomeUnknownSender:
			sum.UnknownSender++
		case outcomeNoData:
			sum.NoData++
		case outcomeFailed:
			sum.Failed++
		}
	}
	w.log.Info().
		Int("listed", sum.Listed).
		Int("imported", sum.Imported).
		Int("unknownSender", sum.UnknownSender).
		Int("noData", sum.NoData).
		Int("failed", sum.Failed).
		Msg("mail import cycle finished")
	return sum, ctx.Err()
}

// Run adapts RunCycle to the scheduler's task signature.
func (w *Watcher) Run(ctx context.Context) error {
	_, err := w.RunCycle(ctx)
	return err
}

func (w *Watcher) handle(ctx context.Context, id string) (out outcome) {
	log := w.log.With().Str("messageId", id).Logger()
	defer func() { w.count(out) }()

	msg, err := w.mbox.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("fetch message")
		return outcomeFailed
	}

	sender, ok := senderAddress(msg.From)
	var user domain.User
	if ok {
		user, ok, err = w.users.FindByEmail(ctx, sender)
		if err != nil {
			log.Error().Err(err).Msg("look up sender")
			return outcomeFailed
		}
	}
	if !ok {
		if err := w.mbox.MarkRead(ctx, id); err != nil {
			log.Error().Err(err).Msg("mark unknown sender read")
			return outcomeFailed
		}
		log.Info().Str("from", msg.From).Msg("sender is not a registered user; skipped")
		return outcomeUnknownSender
	}
	log = log.With().Str("userId", string(user.ID)).Logger()

	ex := Extract(messageText(msg))
	for _, p := range ex.Problems {
		log.Warn().Str("problem", p).Msg("embedded data block ignored")
	}
	if ex.Empty() {
		log.Info().Msg("no flight or hotel found; left unread")
		return outcomeNoData
	}

	trip, err := w.trips.CreateImported(ctx, user.ID, ex.Flights, ex.Hotels)
	if err != nil {
		log.Error().Err(err).Msg("create imported trip")
		return outcomeFailed
	}
	log = log.With().Str("tripId", string(trip.ID)).Logger()
	if err := w.mbox.MarkRead(ctx, id); err != nil {
		// The trip exists; the message will be imported again on the next cycle.
		log.Error().Err(err).Msg("mark imported message read")
		return outcomeFailed
	}
	log.Info().
		Str("strategy", string(ex.Strategy)).
		Int("flights", len(ex.Flights)).
		Int("hotels", len(ex.Hotels)).
		Msg("trip imported")
	return outcomeImported
}

func (w *Watcher) count(o outcome) {
	if w.metrics == nil || o == "" {
		return
	}
	w.metrics.MailMessages.WithLabelValues(string(o)).Inc()
}

// senderAddress extracts the bare address from a From header such as `Ana <ana@example.com>`.
func senderAddress(from string) (string, bool) {
	if a, err := mail.ParseAddress(from); err == nil {
		return a.Address, true
	}
	s := strings.TrimSpace(from)
	if i := strings.LastIndexByte(s, '<'); i >= 0 {
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return "", false
		}
		s = strings.TrimSpace(s[i+1 : i+j])
	}
	if s == "" || !strings.Contains(s, "@") || strings.ContainsAny(s, " \t<>") {
		return "", false
	}
	return s, true
}

// messageText prefers the plain-text part and falls back to the HTML part with tags stripped.
func messageText(m mailbox.Message) string {
	if strings.TrimSpace(m.PlainText) != "" {
		return m.PlainText
	}
	return htmlToText(m.HTML)
}
