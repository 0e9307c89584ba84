package trips

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
	"github.com/roteiro-app/travel-planner-api/internal/platform/validation"
	"github.com/roteiro-app/travel-planner-api/internal/ports/out/triprepo"
)

const geocodeTimeout = 5 * time.Second

// ListItinerary returns the items ordered by their parsed dia (day, then minute).
// Items whose dia cannot be parsed come last; ties keep insertion order.
func (s *Service) ListItinerary(ctx context.Context, caller domain.UserID, tripID domain.TripID) ([]IndexedItem, error) {
	t, err := s.ownedTrip(ctx, caller, tripID)
	if err != nil {
		return nil, err
	}
	return SortForDisplay(t.Itinerary, s.loc), nil
}

// SortForDisplay pairs items with their persisted index and sorts them by parsed dia.
func SortForDisplay(items []domain.ItineraryItem, loc *time.Location) []IndexedItem {
	type keyed struct {
		IndexedItem
		at time.Time
		ok bool
	}
	ks := make([]keyed, 0, len(items))
	for i, it := range items {
		at, _, err := domain.ParseDisplayDate(it.Day, loc)
		ks = append(ks, keyed{IndexedItem: IndexedItem{Index: i, Item: domain.CloneItineraryItem(it)}, at: at, ok: err == nil})
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.at.Before(b.at)
	})
	out := make([]IndexedItem, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.IndexedItem)
	}
	return out
}

func (s *Service) AppendItineraryItem(ctx context.Context, caller domain.UserID, tripID domain.TripID, in NewItineraryItem) (IndexedItem, error) {
	in.PlaceName = domain.NormalizeHumanName(in.PlaceName)
	in.Kind = strings.TrimSpace(in.Kind)
	in.Day = strings.TrimSpace(in.Day)
	if err := s.validate.Struct(in); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return IndexedItem{}, errFromFields(fe)
		}
		return IndexedItem{}, err
	}
	if err := s.checkDay(in.Day); err != nil {
		return IndexedItem{}, err
	}
	if _, err := s.ownedTrip(ctx, caller, tripID); err != nil {
		return IndexedItem{}, err
	}

	item := domain.ItineraryItem{
		ID:          s.newItemID(),
		PlaceName:   in.PlaceName,
		Kind:        in.Kind,
		Value:       in.Value,
		Description: cloneStringPtr(in.Description),
		Day:         in.Day,
		Address:     s.geocodeBestEffort(ctx, tripID, domain.CloneAddress(in.Address)),
	}

	var out IndexedItem
	_, err := s.trips.UpdateItinerary(ctx, tripID, s.clk.Now(), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		items = s.backfillIDs(items)
		out = IndexedItem{Index: len(items), Item: domain.CloneItineraryItem(item)}
		return append(items, item), nil
	})
	if err != nil {
		return IndexedItem{}, s.mapRepoErr(err)
	}
	return out, nil
}

// UpdateItineraryItem applies patch to the item addressed by ref (decimal index or item id).
func (s *Service) UpdateItineraryItem(ctx context.Context, caller domain.UserID, tripID domain.TripID, ref string, patch ItineraryPatch) (IndexedItem, error) {
	if err := s.checkPatch(patch); err != nil {
		return IndexedItem{}, err
	}
	if _, err := s.ownedTrip(ctx, caller, tripID); err != nil {
		return IndexedItem{}, err
	}

	var addr *domain.Address
	if patch.Address.IsSpecified() && !patch.Address.IsNull() {
		a := patch.Address.Value()
		addr = s.geocodeBestEffort(ctx, tripID, domain.CloneAddress(&a))
	}

	var out IndexedItem
	_, err := s.trips.UpdateItinerary(ctx, tripID, s.clk.Now(), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		items = s.backfillIDs(items)
		i, err := resolveRef(items, ref)
		if err != nil {
			return nil, err
		}
		items[i] = applyPatch(items[i], patch, addr)
		out = IndexedItem{Index: i, Item: domain.CloneItineraryItem(items[i])}
		return items, nil
	})
	if err != nil {
		return IndexedItem{}, s.mapRepoErr(err)
	}
	return out, nil
}

// DeleteItineraryItem removes exactly one item; later items shift down by one.
func (s *Service) DeleteItineraryItem(ctx context.Context, caller domain.UserID, tripID domain.TripID, ref string) (domain.Trip, error) {
	if _, err := s.ownedTrip(ctx, caller, tripID); err != nil {
		return domain.Trip{}, err
	}
	t, err := s.trips.UpdateItinerary(ctx, tripID, s.clk.Now(), func(items []domain.ItineraryItem) ([]domain.ItineraryItem, error) {
		items = s.backfillIDs(items)
		i, err := resolveRef(items, ref)
		if err != nil {
			return nil, err
		}
		return append(items[:i], items[i+1:]...), nil
	})
	if err != nil {
		return domain.Trip{}, s.mapRepoErr(err)
	}
	return toDomain(t), nil
}

// ValidateNotPast rejects a dia before now. Day-only values are compared at day granularity.
func ValidateNotPast(day string, now time.Time, loc *time.Location) error {
	at, hasTime, err := domain.ParseDisplayDate(day, loc)
	if err != nil {
		return errValidation("invalid dia", map[string]any{"dia": "must be formatted dd/mm/yyyy [hh:mm]"})
	}
	past := at.Before(now)
	if !hasTime {
		past = domain.CalendarDay(at, loc).Before(domain.CalendarDay(now, loc))
	}
	if past {
		return errValidation("dia is in the past", map[string]any{"dia": "must not be earlier than now"})
	}
	return nil
}

func (s *Service) checkDay(day string) error {
	if !s.rejectPast {
		return nil
	}
	return ValidateNotPast(day, s.clk.Now(), s.loc)
}

func (s *Service) checkPatch(p ItineraryPatch) error {
	details := map[string]any{}
	for name, o := range map[string]Optional[string]{"nomeLocal": p.PlaceName, "tipo": p.Kind, "dia": p.Day} {
		if o.IsSpecified() && (o.IsNull() || strings.TrimSpace(o.Value()) == "") {
			details[name] = "must be non-empty"
		}
	}
	if p.Value.IsNull() {
		details["valor"] = "cannot be null"
	} else if p.Value.IsSpecified() && p.Value.Value() < 0 {
		details["valor"] = "must be >= 0"
	}
	if len(details) > 0 {
		return errValidation("invalid itinerary patch", details)
	}
	if p.Day.IsSpecified() {
		return s.checkDay(strings.TrimSpace(p.Day.Value()))
	}
	return nil
}

func applyPatch(it domain.ItineraryItem, p ItineraryPatch, geocoded *domain.Address) domain.ItineraryItem {
	if p.PlaceName.IsSpecified() {
		it.PlaceName = domain.NormalizeHumanName(p.PlaceName.Value())
	}
	if p.Kind.IsSpecified() {
		it.Kind = strings.TrimSpace(p.Kind.Value())
	}
	if p.Value.IsSpecified() {
		it.Value = p.Value.Value()
	}
	if p.Day.IsSpecified() {
		it.Day = strings.TrimSpace(p.Day.Value())
	}
	if p.Description.IsSpecified() {
		if p.Description.IsNull() {
			it.Description = nil
		} else {
			v := p.Description.Value()
			it.Description = &v
		}
	}
	if p.Address.IsSpecified() {
		if p.Address.IsNull() {
			it.Address = nil
		} else {
			it.Address = domain.CloneAddress(geocoded)
		}
	}
	return it
}

// resolveRef maps a decimal index or an item id to a position in items.
func resolveRef(items []domain.ItineraryItem, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(items) {
			return 0, errIndexOutOfRange(i, len(items))
		}
		return i, nil
	}
	for i, it := range items {
		if string(it.ID) == ref {
			return i, nil
		}
	}
	return 0, errItemNotFound()
}

// backfillIDs assigns ids to items stored before ids existed.
func (s *Service) backfillIDs(items []domain.ItineraryItem) []domain.ItineraryItem {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = s.newItemID()
		}
	}
	return items
}

// geocodeBestEffort fills coordinates when a has none. Failures are logged and leave a unchanged.
func (s *Service) geocodeBestEffort(ctx context.Context, tripID domain.TripID, a *domain.Address) *domain.Address {
	if a == nil || a.HasCoordinates() || s.geocoder == nil {
		return a
	}
	q := a.GeocodeQuery()
	if q == "" {
		return a
	}
	gctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()
	p, err := s.geocoder.Geocode(gctx, q)
	if err != nil {
		s.log.Warn().Err(err).Str("tripId", string(tripID)).Msg("geocoding failed; saving without coordinates")
		return a
	}
	lat, lng := p.Latitude, p.Longitude
	a.Latitude, a.Longitude = &lat, &lng
	return a
}

func (s *Service) mapRepoErr(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, triprepo.ErrNotFound) {
		return errTripNotFound()
	}
	return err
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
