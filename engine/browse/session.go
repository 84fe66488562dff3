// Package browse is the application context of one browsing session. It owns
// the API client, the session caches and the loaded cars, and is the only
// layer that turns fetch failures into empty results.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WessleyAI/carbrowse/engine/cache"
	"github.com/WessleyAI/carbrowse/engine/catalog"
	"github.com/WessleyAI/carbrowse/engine/mapping"
	"github.com/WessleyAI/carbrowse/engine/query"
	"github.com/WessleyAI/carbrowse/pkg/fn"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
)

const (
	DefaultMakeID = 72318
	ModelsPerPage = 10
)

// errNoData marks a fetch chain that found nothing to follow.
var errNoData = errors.New("no data")

// API is the subset of the car-spec client a session uses.
type API interface {
	ListMakes(ctx context.Context) fn.Result[[]catalog.Make]
	ListModels(ctx context.Context, makeID int) fn.Result[[]catalog.Model]
	ListGenerations(ctx context.Context, modelID int) fn.Result[[]catalog.Generation]
	ListTrims(ctx context.Context, generationID int) fn.Result[[]catalog.Trim]
	GetSpec(ctx context.Context, trimID int) fn.Result[catalog.Spec]
}

// ImageLookup finds a picture for a make and model.
type ImageLookup interface {
	Lookup(ctx context.Context, makeName, modelName string) (string, bool)
}

// Options configures a Session. Only API is required.
type Options struct {
	API    API
	Images ImageLookup
	Store  *cache.Store
	// CacheSize bounds each cache of a new Store; <= 0 is unbounded.
	CacheSize int
	// Synthesizer fills placeholder rental fields. Nil leaves them zero.
	Synthesizer *mapping.Synthesizer
	Prefetch    cache.PrefetchOpts
	Publisher   EventPublisher
	Metrics     *metrics.Registry
	Logger      *slog.Logger
}

// Session holds the state of one user browsing the catalog.
type Session struct {
	ID string

	api      API
	images   ImageLookup
	store    *cache.Store
	prefetch *cache.Prefetcher
	synth    *mapping.Synthesizer
	pub      EventPublisher
	log      *slog.Logger

	loaded *metrics.Gauge
	stale  *metrics.Counter

	mu       sync.Mutex
	cars     []catalog.Car
	makeID   int
	lastPage int
	seq      uint64
}

// New creates a Session. ctx bounds the lifetime of background prefetches.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.API == nil {
		return nil, errors.New("browse: API is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Store == nil {
		st, err := cache.NewStore(opts.CacheSize, opts.Metrics)
		if err != nil {
			return nil, fmt.Errorf("browse: cache store: %w", err)
		}
		opts.Store = st
	}

	id := uuid.NewString()
	s := &Session{
		ID:     id,
		api:    opts.API,
		images: opts.Images,
		store:  opts.Store,
		synth:  opts.Synthesizer,
		pub:    opts.Publisher,
		log:    opts.Logger.With("session", id),
		loaded: opts.Metrics.Gauge("browse_loaded_cars", "Cars currently loaded in the session"),
		stale:  opts.Metrics.Counter("browse_stale_responses_total", "Responses discarded after a newer selection"),
		cars:   []catalog.Car{},
	}
	if opts.Prefetch.Logger == nil {
		opts.Prefetch.Logger = s.log
	}
	s.prefetch = cache.NewPrefetcher(ctx, s.prefetchModel, opts.Prefetch)
	return s, nil
}

// Close cancels a pending hover and waits for running prefetches.
func (s *Session) Close() {
	s.prefetch.Cancel()
	s.prefetch.Wait()
}

// Makes returns all manufacturers, fetched once per session. A failed fetch
// is logged, returns an empty list and is retried on the next call.
func (s *Session) Makes(ctx context.Context) []catalog.Make {
	makes, err := s.store.Makes.Load(ctx, struct{}{}, func(ctx context.Context, _ struct{}) fn.Result[[]catalog.Make] {
		return s.api.ListMakes(ctx)
	}).Unwrap()
	if err != nil {
		s.log.Warn("list makes failed", "err", err)
		return []catalog.Make{}
	}
	return makes
}

func (s *Session) makeName(ctx context.Context, makeID int) string {
	for _, m := range s.Makes(ctx) {
		if m.ID == makeID {
			return m.Name
		}
	}
	return ""
}

// Models returns the models of a make through the session cache.
func (s *Session) Models(ctx context.Context, makeID int) []catalog.Model {
	models, err := s.store.Models.Load(ctx, makeID, s.api.ListModels).Unwrap()
	if err != nil {
		s.log.Warn("list models failed", "make_id", makeID, "err", err)
		return []catalog.Model{}
	}
	return models
}

// Generations returns the generations of a model through the session cache.
func (s *Session) Generations(ctx context.Context, modelID int) []catalog.Generation {
	gens, err := s.store.Generations.Load(ctx, modelID, s.api.ListGenerations).Unwrap()
	if err != nil {
		s.log.Warn("list generations failed", "model_id", modelID, "err", err)
		return []catalog.Generation{}
	}
	return gens
}

// Trims returns the trims of a generation through the session cache.
func (s *Session) Trims(ctx context.Context, generationID int) []catalog.Trim {
	trims, err := s.store.Trims.Load(ctx, generationID, s.api.ListTrims).Unwrap()
	if err != nil {
		s.log.Warn("list trims failed", "generation_id", generationID, "err", err)
		return []catalog.Trim{}
	}
	return trims
}

// Spec returns the spec of a trim, or false when it could not be loaded.
func (s *Session) Spec(ctx context.Context, trimID int) (catalog.Spec, bool) {
	spec, err := s.store.Specs.Load(ctx, trimID, s.api.GetSpec).Unwrap()
	if err != nil {
		s.log.Warn("get spec failed", "trim_id", trimID, "err", err)
		return catalog.Spec{}, false
	}
	return spec, true
}

// toCars maps models into cars for makeID, numbering from offset.
func (s *Session) toCars(ctx context.Context, makeID int, models []catalog.Model, offset int) []catalog.Car {
	name := s.makeName(ctx, makeID)
	return fn.FilterMap(models, func(i int, m catalog.Model) (catalog.Car, bool) {
		car := mapping.MapModelToCar(m, offset+i)
		car.Make = name
		if s.synth != nil {
			car = s.synth.Enrich(car)
		}
		if s.images != nil {
			if u, ok := s.images.Lookup(ctx, car.Make, car.Model); ok {
				car.Image = u
			}
		}
		return car, true
	})
}

// SelectMake loads every model of makeID and replaces the session's cars
// with them. If another selection starts before this one finishes, the
// result is dropped and ErrStaleResponse returned.
func (s *Session) SelectMake(ctx context.Context, makeID int) ([]catalog.Car, error) {
	seq := s.begin(makeID)
	cars := s.toCars(ctx, makeID, s.Models(ctx, makeID), 0)
	if err := s.commit(seq, makeID, 0, cars, false); err != nil {
		return nil, err
	}
	s.publish(ctx, makeID, 0, cars)
	return cars, nil
}

// LoadPage maps one page of a make's models and adds them to the loaded cars.
// Page 1, or a page of a different make, starts a new selection; later pages
// merge without duplicating IDs.
func (s *Session) LoadPage(ctx context.Context, makeID, page, perPage int) ([]catalog.Car, error) {
	if perPage <= 0 {
		perPage = ModelsPerPage
	}
	s.mu.Lock()
	fresh := page <= 1 || makeID != s.makeID
	seq := s.seq
	s.mu.Unlock()
	if fresh {
		seq = s.begin(makeID)
	}

	models := s.Models(ctx, makeID)
	var start int
	var pageModels []catalog.Model
	if p := max(page, 1) - 1; p < query.PageCount(len(models), perPage) {
		start = p * perPage
		pageModels = models[start : start+min(perPage, len(models)-start)]
	}
	cars := s.toCars(ctx, makeID, pageModels, start)

	if err := s.commit(seq, makeID, page, cars, !fresh); err != nil {
		return nil, err
	}
	s.publish(ctx, makeID, page, cars)
	return cars, nil
}

func (s *Session) begin(makeID int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.makeID = makeID
	s.lastPage = 0
	return s.seq
}

func (s *Session) commit(seq uint64, makeID, page int, cars []catalog.Car, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.stale.Inc()
		s.log.Info("discarding stale response", "make_id", makeID, "page", page)
		return fmt.Errorf("browse: make %d: %w", makeID, catalog.ErrStaleResponse)
	}
	if merge {
		s.cars = query.MergeUnique(s.cars, cars)
	} else {
		s.cars = append([]catalog.Car{}, cars...)
	}
	s.lastPage = max(page, s.lastPage)
	s.loaded.Set(int64(len(s.cars)))
	return nil
}

// NextPage loads the page after the last one loaded for the current make.
func (s *Session) NextPage(ctx context.Context, perPage int) ([]catalog.Car, error) {
	s.mu.Lock()
	makeID, next := s.makeID, s.lastPage+1
	s.mu.Unlock()
	return s.LoadPage(ctx, makeID, next, perPage)
}

// Cars returns a copy of the loaded cars.
func (s *Session) Cars() []catalog.Car {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Car{}, s.cars...)
}

// View filters, sorts and pages the loaded cars.
func (s *Session) View(f query.Filters, sortKey string, page, pageSize int) query.Page {
	return query.View(s.Cars(), f, sortKey, page, pageSize)
}

// HoverModel schedules a debounced prefetch of the model's first trims.
func (s *Session) HoverModel(modelID int) {
	s.prefetch.Hover(modelID)
}

// Prefetched reports whether a model was already prefetched.
func (s *Session) Prefetched(modelID int) bool {
	return s.prefetch.Prefetched(modelID)
}

func (s *Session) firstGeneration(ctx context.Context, modelID int) fn.Result[catalog.Generation] {
	gens, err := s.store.Generations.Load(ctx, modelID, s.api.ListGenerations).Unwrap()
	if err != nil {
		return fn.Err[catalog.Generation](err)
	}
	if len(gens) == 0 {
		return fn.Errf[catalog.Generation]("model %d has no generations: %w", modelID, errNoData)
	}
	return fn.Ok(gens[0])
}

func (s *Session) firstTrim(ctx context.Context, g catalog.Generation) fn.Result[catalog.Trim] {
	trims, err := s.store.Trims.Load(ctx, g.ID, s.api.ListTrims).Unwrap()
	if err != nil {
		return fn.Err[catalog.Trim](err)
	}
	if len(trims) == 0 {
		return fn.Errf[catalog.Trim]("generation %d has no trims: %w", g.ID, errNoData)
	}
	return fn.Ok(trims[0])
}

func (s *Session) trimSpec(ctx context.Context, t catalog.Trim) fn.Result[catalog.Spec] {
	return s.store.Specs.Load(ctx, t.ID, s.api.GetSpec)
}

// firstTrimOf resolves a model id to the first trim of its first generation.
func (s *Session) firstTrimOf() fn.Stage[int, catalog.Trim] {
	return fn.Then(
		fn.Stage[int, catalog.Generation](s.firstGeneration),
		fn.Stage[catalog.Generation, catalog.Trim](s.firstTrim),
	)
}

// prefetchModel warms the first generation's trims of a model.
func (s *Session) prefetchModel(ctx context.Context, modelID int) error {
	chain := fn.TracedStage("browse.prefetch", s.firstTrimOf())
	_, err := chain(ctx, modelID).Unwrap()
	if errors.Is(err, errNoData) {
		return nil
	}
	return err
}

// CarDetails follows the car's model to its first generation, first trim and
// spec, and merges the spec into the car. On any failure the car is
// returned unchanged.
func (s *Session) CarDetails(ctx context.Context, car catalog.Car) catalog.Car {
	chain := fn.TracedStage("browse.car_details",
		fn.Then(s.firstTrimOf(), fn.Stage[catalog.Trim, catalog.Spec](s.trimSpec)))
	spec, err := chain(ctx, car.ModelID).Unwrap()
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, errNoData) {
			level = slog.LevelDebug
		}
		s.log.Log(ctx, level, "car details unavailable", "model_id", car.ModelID, "err", err)
		return car
	}
	out, err := mapping.ApplySpec(car, spec)
	if err != nil {
		s.log.Warn("apply spec failed", "model_id", car.ModelID, "err", err)
		return car
	}
	return out
}

// CarsLoaded is published whenever a selection or page adds cars.
type CarsLoaded struct {
	SessionID string        `json:"session_id"`
	MakeID    int           `json:"make_id"`
	MakeName  string        `json:"make_name,omitempty"`
	Page      int           `json:"page,omitempty"`
	Count     int           `json:"count"`
	Cars      []catalog.Car `json:"cars"`
	LoadedAt  time.Time     `json:"loaded_at"`
}

// EventPublisher receives CarsLoaded events.
type EventPublisher interface {
	PublishCarsLoaded(ctx context.Context, ev CarsLoaded) error
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(ctx context.Context, ev CarsLoaded) error

func (f PublisherFunc) PublishCarsLoaded(ctx context.Context, ev CarsLoaded) error {
	return f(ctx, ev)
}

func (s *Session) publish(ctx context.Context, makeID, page int, cars []catalog.Car) {
	if s.pub == nil {
		return
	}
	ev := CarsLoaded{
		SessionID: s.ID,
		MakeID:    makeID,
		MakeName:  s.makeName(ctx, makeID),
		Page:      page,
		Count:     len(cars),
		Cars:      cars,
		LoadedAt:  time.Now().UTC(),
	}
	if err := s.pub.PublishCarsLoaded(ctx, ev); err != nil {
		s.log.Warn("publish cars loaded failed", "make_id", makeID, "err", err)
	}
}
