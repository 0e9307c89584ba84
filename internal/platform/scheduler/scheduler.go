package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/joblock"
)

// ErrBusy is returned by RunOnce when another run of the same job holds the lock.
var ErrBusy = errors.New("job already running")

// Task is one run of a background job.
type Task func(ctx context.Context) error

type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart fires one run immediately instead of waiting a full interval.
	RunOnStart bool
	Task       Task
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func NewStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

type Options struct {
	Locker  joblock.Locker
	LockTTL time.Duration
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	// NewTicker defaults to NewStdTicker.
	NewTicker TickerFunc
}

// Runner runs jobs on an interval. Every run, scheduled or on demand, holds the job's lock
// so a slow run makes later ticks skip instead of piling up.
type Runner struct {
	locker    joblock.Locker
	lockTTL   time.Duration
	log       zerolog.Logger
	metrics   *metrics.Metrics
	newTicker TickerFunc

	wg sync.WaitGroup
}

func NewRunner(opts Options) *Runner {
	nt := opts.NewTicker
	if nt == nil {
		nt = NewStdTicker
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Runner{
		locker:    opts.Locker,
		lockTTL:   ttl,
		log:       opts.Log,
		metrics:   opts.Metrics,
		newTicker: nt,
	}
}

// RunOnce runs task under the named lock. It returns ErrBusy without running when the lock is held.
func (r *Runner) RunOnce(ctx context.Context, name string, task Task) error {
	release, ok, err := r.locker.TryLock(ctx, name, r.lockTTL)
	if err != nil {
		r.count(name, "error")
		return err
	}
	if !ok {
		r.count(name, "skipped")
		return ErrBusy
	}
	defer release()

	start := time.Now()
	err = task(ctx)
	release()
	ev := r.log.Info()
	result := "ok"
	if err != nil {
		ev = r.log.Error().Err(err)
		result = "error"
	}
	ev.Str("job", name).Dur("duration", time.Since(start)).Msg("job run finished")
	r.count(name, result)
	return err
}

// Every blocks until ctx is done, starting a run on each tick. Runs execute on their own
// goroutine; Every waits for in-flight runs before returning.
func (r *Runner) Every(ctx context.Context, job Job) error {
	if job.Interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	t := r.newTicker(job.Interval)
	defer t.Stop()
	defer r.wg.Wait()

	r.log.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("job scheduled")
	if job.RunOnStart {
		r.spawn(ctx, job)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			r.spawn(ctx, job)
		}
	}
}

func (r *Runner) spawn(ctx context.Context, job Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.RunOnce(ctx, job.Name, job.Task)
		if errors.Is(err, ErrBusy) {
			r.log.Warn().Str("job", job.Name).Msg("previous run still in progress; tick skipped")
		}
	}()
}

func (r *Runner) count(job, result string) {
	if r.metrics != nil {
		r.metrics.JobRuns.WithLabelValues(job, result).Inc()
	}
}
