package search

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/metrics"
	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/searchprovider"
)

var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

type Options struct {
	// Timeout bounds each upstream call; zero means no extra deadline.
	Timeout time.Duration
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Service validates search parameters and forwards them upstream. Replies are never reshaped.
type Service struct {
	provider searchprovider.Provider
	cep      searchprovider.PostalCodeLookup
	validate *validation.Validator
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewService(provider searchprovider.Provider, cep searchprovider.PostalCodeLookup, opts Options) *Service {
	return &Service{
		provider: provider,
		cep:      cep,
		validate: validation.New(),
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		log:      opts.Log.With().Str("component", "search").Logger(),
	}
}

func (s *Service) SearchFlights(ctx context.Context, p FlightParams) (searchprovider.Response, error) {
	p.DepartureID = strings.ToUpper(strings.TrimSpace(p.DepartureID))
	p.ArrivalID = strings.ToUpper(strings.TrimSpace(p.ArrivalID))
	p.OutboundDate = strings.TrimSpace(p.OutboundDate)
	p.ReturnDate = strings.TrimSpace(p.ReturnDate)
	if err := s.check(p); err != nil {
		return searchprovider.Response{}, err
	}
	if p.ReturnDate != "" && p.ReturnDate < p.OutboundDate {
		return searchprovider.Response{}, errValidation("return_date is before outbound_date", map[string]any{"return_date": "must not be before outbound_date"})
	}
	q := searchprovider.FlightQuery{
		DepartureID:  p.DepartureID,
		ArrivalID:    p.ArrivalID,
		OutboundDate: p.OutboundDate,
		ReturnDate:   p.ReturnDate,
		Currency:     orDefault(strings.ToUpper(p.Currency), defaultCurrency),
		Language:     orDefault(p.Language, defaultLanguage),
		Adults:       p.Adults,
	}
	return s.call(ctx, "google_flights", func(ctx context.Context) (searchprovider.Response, error) {
		return s.provider.SearchFlights(ctx, q)
	})
}

func (s *Service) SearchHotels(ctx context.Context, p HotelParams) (searchprovider.Response, error) {
	p.Query = strings.TrimSpace(p.Query)
	p.CheckInDate = strings.TrimSpace(p.CheckInDate)
	p.CheckOutDate = strings.TrimSpace(p.CheckOutDate)
	if err := s.check(p); err != nil {
		return searchprovider.Response{}, err
	}
	if p.CheckOutDate < p.CheckInDate {
		return searchprovider.Response{}, errValidation("check_out_date is before check_in_date", map[string]any{"check_out_date": "must not be before check_in_date"})
	}
	q := searchprovider.HotelQuery{
		Query:        p.Query,
		CheckInDate:  p.CheckInDate,
		CheckOutDate: p.CheckOutDate,
		Currency:     orDefault(strings.ToUpper(p.Currency), defaultCurrency),
		Language:     orDefault(p.Language, defaultLanguage),
		Adults:       p.Adults,
	}
	return s.call(ctx, "google_hotels", func(ctx context.Context) (searchprovider.Response, error) {
		return s.provider.SearchHotels(ctx, q)
	})
}

// LookupCEP accepts "00000000" or "00000-000".
func (s *Service) LookupCEP(ctx context.Context, raw string) (searchprovider.Response, error) {
	raw = strings.TrimSpace(raw)
	if !cepPattern.MatchString(raw) {
		return searchprovider.Response{}, errValidation("invalid cep", map[string]any{"cep": "must have 8 digits"})
	}
	cep := domain.DigitsOnly(raw)
	return s.call(ctx, "viacep", func(ctx context.Context) (searchprovider.Response, error) {
		return s.cep.LookupCEP(ctx, cep)
	})
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return errValidation(fe.Error(), fe.Details())
		}
		return err
	}
	return nil
}

func (s *Service) call(ctx context.Context, provider string, fn func(context.Context) (searchprovider.Response, error)) (searchprovider.Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := fn(ctx)
	if err != nil {
		s.count(provider, "error")
		s.log.Error().Err(err).Str("provider", provider).Dur("elapsed", time.Since(start)).Msg("upstream search failed")
		return searchprovider.Response{}, errUpstream()
	}
	s.count(provider, strconv.Itoa(resp.StatusCode))
	s.log.Debug().Str("provider", provider).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("upstream search")
	return resp, nil
}

func (s *Service) count(provider, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchRequests.WithLabelValues(provider, status).Inc()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
