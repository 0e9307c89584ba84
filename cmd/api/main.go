package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roteiro-app/travel-planner-api/internal/adapters/expo"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/gmail"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/googlemaps"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/httpapi"
	memidempotency "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/idempotency"
	memjoblock "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/joblock"
	memrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/recordrepo"
	memtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/triprepo"
	memuserrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/memory/userrepo"
	postgres "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres"
	pgidempotency "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/idempotency"
	pgrecordrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/recordrepo"
	pgtriprepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/triprepo"
	pguserrepo "github.com/roteiro-app/travel-planner-api/internal/adapters/postgres/userrepo"
	redisjoblock "github.com/roteiro-app/travel-planner-api/internal/adapters/redis/joblock"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/serpapi"
	"github.com/roteiro-app/travel-planner-api/internal/adapters/viacep"
	"github.com/roteiro-app/travel-planner-api/internal/app/mailimport"
	"github.com/roteiro-app/travel-planner-api/internal/app/notify"
	"github.com/roteiro-app/travel-planner-api/internal/app/records"
	"github.com/roteiro-app/travel-planner-api/internal/app/search"
	"github.com/roteiro-app/travel-planner-api/internal/app/trips"
	"github.com/roteiro-app/travel-planner-api/internal/app/users"
	"github.com/roteiro-app/travel-planner-api/internal/platform/auth/tokens"
	platformclock "github.com/roteiro-app/travel-planner-api/internal/platform/clock"
	"github.com/roteiro-app/travel-planner-api/internal/platform/config"
	"github.com/roteiro-app/travel-planner-api/internal/platform/logging"
	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	"github.com/roteiro-app/travel-planner-api/internal/platform/scheduler"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/geocoder"
	idempotencyport "github.com/roteiro-app/travel-planner-api/internal/ports/out/idempotency"
	joblockport "github.com/roteiro-app/travel-planner-api/internal/ports/out/joblock"
	recordrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/recordrepo"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
	triprepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
	userrepoport "github.com/roteiro-app/travel-planner-api/internal/ports/out/userrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	clk := platformclock.NewSystemClock()
	m := metrics.New()

	var (
		userRepo   userrepoport.Repository
		tripRepo   triprepoport.Repository
		recordRepo recordrepoport.Repository
		idemStore  idempotencyport.Store
	)
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.Storage.MaxConns})
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		userRepo = pguserrepo.NewRepo(pool)
		tripRepo = pgtriprepo.NewRepo(pool)
		recordRepo = pgrecordrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		userRepo = memuserrepo.NewRepo()
		tripRepo = memtriprepo.NewRepo()
		recordRepo = memrecordrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}
	log.Info().Str("backend", cfg.Storage.Backend).Msg("storage ready")

	secret := []byte(cfg.Auth.Secret)
	if cfg.Auth.Mode == "dev" && len(secret) < 16 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		log.Warn().Msg("AUTH_SECRET not set; login tokens are signed with an ephemeral key")
	}
	tm, err := tokens.NewManager(tokens.Config{
		Secret: secret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}
	var authMW func(http.Handler) http.Handler
	switch cfg.Auth.Mode {
	case "dev":
		log.Warn().Msg("AUTH_MODE=dev: requests are trusted via X-Debug-Subject")
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevDefaultSubject)
	default:
		authMW = httpapi.NewAuthMiddleware(tm)
	}

	var geo geocoder.Geocoder
	if cfg.Geo.GoogleMapsAPIKey != "" {
		g, err := googlemaps.NewGeocoder(cfg.Geo.GoogleMapsAPIKey)
		if err != nil {
			return err
		}
		geo = g
	} else {
		log.Info().Msg("GOOGLE_MAPS_API_KEY not set; itinerary geocoding disabled")
	}

	var provider searchprovider.Provider = unconfiguredSearch{}
	if cfg.Search.SerpAPIKey != "" {
		c, err := serpapi.NewClient(cfg.Search.SerpAPIBaseURL, cfg.Search.SerpAPIKey, nil)
		if err != nil {
			return err
		}
		provider = c
	} else {
		log.Warn().Msg("SERPAPI_KEY not set; flight and hotel search will fail")
	}

	var locker joblockport.Locker = memjoblock.NewLocker()
	if cfg.Jobs.RedisURL != "" {
		rl, err := redisjoblock.NewLocker(cfg.Jobs.RedisURL)
		if err != nil {
			return err
		}
		defer rl.Close()
		if err := rl.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		locker = rl
	}

	usersSvc := users.NewService(userRepo, clk, tm, cfg.Auth.BcryptCost)
	tripsSvc := trips.NewService(tripRepo, clk, trips.Options{
		Geocoder:        geo,
		Location:        cfg.Push.Location,
		RejectPastItems: cfg.Itinerary.RejectPast,
		Log:             log,
	})
	dispatcher := notify.NewDispatcher(userRepo, tripRepo, expo.NewClient(cfg.Push.ExpoBaseURL, cfg.Push.ExpoAccessToken, nil, log), clk, notify.Options{
		Location:        cfg.Push.Location,
		ChunksPerSecond: cfg.Push.ChunksPerSecond,
		Metrics:         m,
		Log:             log,
	})
	runner := scheduler.NewRunner(scheduler.Options{
		Locker:  locker,
		LockTTL: cfg.Jobs.LockTTL,
		Log:     log,
		Metrics: m,
	})

	api := httpapi.NewServer(httpapi.Services{
		Users:   usersSvc,
		Trips:   tripsSvc,
		Records: records.NewService(recordRepo, tripsSvc, clk),
		Search: search.NewService(provider, viacep.NewClient(cfg.Search.ViaCEPBaseURL, nil), search.Options{
			Timeout: cfg.Search.Timeout,
			Metrics: m,
			Log:     log,
		}),
		Notify: dispatcher,
		Jobs:   runner,
	}, idemStore, clk)

	srv := &http.Server{
		Addr: ":" + cfg.HTTP.Port,
		Handler: httpapi.NewRouter(api, httpapi.RouterOptions{
			AuthMiddleware: authMW,
			Metrics:        m,
			Log:            log,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return runner.Every(gctx, scheduler.Job{
			Name:     notify.JobName,
			Interval: cfg.Push.NotifyInterval,
			Task:     dispatcher.Run,
		})
	})

	if cfg.Mail.Enabled() {
		mbox, err := gmail.NewMailbox(ctx, gmail.Credentials{
			ClientID:     cfg.Mail.GmailClientID,
			ClientSecret: cfg.Mail.GmailClientSecret,
			RefreshToken: cfg.Mail.GmailRefreshToken,
			User:         cfg.Mail.GmailUser,
		})
		if err != nil {
			return err
		}
		watcher := mailimport.NewWatcher(mbox, usersSvc, tripsSvc, mailimport.Options{
			BatchSize: cfg.Mail.BatchSize,
			Metrics:   m,
			Log:       log,
		})
		g.Go(func() error {
			return runner.Every(gctx, scheduler.Job{
				Name:       mailimport.JobName,
				Interval:   cfg.Mail.PollInterval,
				RunOnStart: true,
				Task:       watcher.Run,
			})
		})
	} else {
		log.Info().Msg("GMAIL_* not set; email import disabled")
	}

	return g.Wait()
}

type unconfiguredSearch struct{}

var errSearchUnconfigured = errors.New("SERPAPI_KEY not configured")

func (unconfiguredSearch) SearchFlights(context.Context, searchprovider.FlightQuery) (searchprovider.Response, error) {
	return searchprovider.Response{}, errSearchUnconfigured
}

func (unconfiguredSearch) SearchHotels(context.Context, searchprovider.HotelQuery) (searchprovider.Response, error) {
	return searchprovider.Response{}, errSearchUnconfigured
}
