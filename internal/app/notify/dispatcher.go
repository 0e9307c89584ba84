package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	clockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/clock"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/pusher"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

// JobName names the scheduler job and its overlap lock.
const JobName = "notify"

// Reminder kinds, sent in the push payload as "type".
const (
	KindHotelCheckIn    = "hotel_checkin"
	KindHotelCheckOut   = "hotel_checkout"
	KindFlightDeparture = "flight_departure"
)

type Options struct {
	// Location decides what "tomorrow" means; defaults to UTC.
	Location *time.Location
	// ChunksPerSecond paces Send calls; zero disables pacing.
	ChunksPerSecond float64
	Metrics         *metrics.Metrics
	Log             zerolog.Logger
}

// Dispatcher sends day-before reminders for hotel check-ins, check-outs and flight departures.
// It keeps no state between runs; running it twice on the same day sends everything twice.
type Dispatcher struct {
	users   userrepo.Repository
	trips   triprepo.Repository
	push    pusher.Pusher
	clk     clockport.Clock
	loc     *time.Location
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewDispatcher(users userrepo.Repository, trips triprepo.Repository, push pusher.Pusher, clk clockport.Clock, opts Options) *Dispatcher {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	limit := rate.Inf
	if opts.ChunksPerSecond > 0 {
		limit = rate.Limit(opts.ChunksPerSecond)
	}
	return &Dispatcher{
		users:   users,
		trips:   trips,
		push:    push,
		clk:     clk,
		loc:     loc,
		limiter: rate.NewLimiter(limit, 1),
		metrics: opts.Metrics,
		log:     opts.Log.With().Str("job", JobName).Logger(),
	}
}

// Summary reports one dispatch run.
type Summary struct {
	Users        int `json:"users"`
	Messages     int `json:"messages"`
	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failedChunks"`
}

// Dispatch builds every reminder due tomorrow and sends them in chunks.
// A failed chunk is logged and counted; the run goes on with the next one.
func (d *Dispatcher) Dispatch(ctx context.Context) (Summary, error) {
	tomorrow := domain.CalendarDay(d.clk.Now(), d.loc).AddDate(0, 0, 1)

	users, err := d.users.ListWithPushToken(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list push targets: %w", err)
	}
	sum := Summary{Users: len(users)}

	var msgs []pusher.Message
	for _, u := range users {
		ts, err := d.trips.ListByUser(ctx, u.ID)
		if err != nil {
			d.log.Error().Err(err).Str("userId", string(u.ID)).Msg("list trips; user skipped")
			continue
		}
		for _, t := range ts {
			msgs = append(msgs, Reminders(*u.PushToken, t, tomorrow, d.loc)...)
		}
	}
	sum.Messages = len(msgs)
	if d.metrics != nil {
		d.metrics.NotifyMessages.Add(float64(len(msgs)))
	}

	for start := 0; start < len(msgs); start += pusher.MaxChunkSize {
		end := min(start+pusher.MaxChunkSize, len(msgs))
		if err := d.limiter.Wait(ctx); err != nil {
			return sum, err
		}
		sum.Chunks++
		if err := d.push.Send(ctx, msgs[start:end]); err != nil {
			sum.FailedChunks++
			d.countChunk("error")
			d.log.Error().Err(err).Int("chunk", sum.Chunks).Int("size", end-start).Msg("push chunk failed")
			continue
		}
		d.countChunk("ok")
	}

	d.log.Info().
		Int("users", sum.Users).
		Int("messages", sum.Messages).
		Int("chunks", sum.Chunks).
		Int("failedChunks", sum.FailedChunks).
		Msg("reminders dispatched")
	return sum, nil
}

// Run adapts Dispatch to the scheduler's task signature.
func (d *Dispatcher) Run(ctx context.Context) error {
	_, err := d.Dispatch(ctx)
	return err
}

func (d *Dispatcher) countChunk(result string) {
	if d.metrics != nil {
		d.metrics.NotifyChunks.WithLabelValues(result).Inc()
	}
}

// Reminders returns the messages for trip events whose calendar day in loc equals day.
// Dates that do not parse are ignored.
func Reminders(token string, t triprepo.Trip, day time.Time, loc *time.Location) []pusher.Message {
	var out []pusher.Message
	due := func(s string) bool {
		at, _, err := domain.ParseDisplayDate(s, loc)
		return err == nil && domain.SameCalendarDay(at, day, loc)
	}
	msg := func(kind, title, body string) pusher.Message {
		return pusher.Message{
			To:    token,
			Title: title,
			Body:  body,
			Data:  map[string]string{"type": kind, "tripId": string(t.ID)},
		}
	}

	for _, h := range t.Hotels {
		if due(h.CheckIn) {
			out = append(out, msg(KindHotelCheckIn, "Check-in amanhã", fmt.Sprintf("Seu check-in no %s é amanhã.", h.Name)))
		}
		if h.CheckOut != "" && due(h.CheckOut) {
			out = append(out, msg(KindHotelCheckOut, "Check-out amanhã", fmt.Sprintf("Seu check-out do %s é amanhã.", h.Name)))
		}
	}
	for _, f := range t.Flights {
		if !due(f.DepartureDate) {
			continue
		}
		body := fmt.Sprintf("Seu voo de %s para %s parte amanhã.", f.Origin, f.Destination)
		if f.DepartureTime != "" {
			body = fmt.Sprintf("Seu voo de %s para %s parte amanhã às %s.", f.Origin, f.Destination, f.DepartureTime)
		}
		out = append(out, msg(KindFlightDeparture, "Voo amanhã", body))
	}
	return out
}
