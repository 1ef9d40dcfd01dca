package almanac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/PartyShepherd/alchemelody/internal/metrics"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
	"github.com/PartyShepherd/alchemelody/internal/store"
)

const (
	dateLayout = "2006-01-02"

	defaultFetchTimeout = 30 * time.Second
)

// Service fetches astronomical days from sources in priority order and turns
// them into planetary hour tables.
type Service struct {
	sources        []Source
	repo           LocationRepository
	defaultLoc     *planetary.Location
	allowSynthetic bool
	log            *zap.Logger
	metrics        *metrics.Metrics
	clock          func() time.Time
	fetchTimeout   time.Duration

	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultLocation is used when the repository holds no location.
func WithDefaultLocation(loc planetary.Location) Option {
	return func(s *Service) { s.defaultLoc = &loc }
}

// WithSyntheticFallback lets Day return a labelled synthetic day when every
// source is unconfigured or unreachable.
func WithSyntheticFallback(allow bool) Option {
	return func(s *Service) { s.allowSynthetic = allow }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFetchTimeout bounds one shared lookup across all sources.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// NewService creates a new Service.
func NewService(repo LocationRepository, sources []Source, opts ...Option) *Service {
	s := &Service{
		sources:      sources,
		repo:         repo,
		log:          zap.NewNop(),
		clock:        time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sources returns the configured source names in priority order.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

// Day returns the astronomical day for loc on the given local date. Identical
// concurrent requests share one fetch.
func (s *Service) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	if err := loc.Validate(); err != nil {
		return planetary.AstronomicalDay{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	key := loc.Key() + "@" + date.Format(dateLayout)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		// Shared by every waiter, so no single caller may cancel it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetchDay(fctx, loc, date)
	})

	select {
	case <-ctx.Done():
		return planetary.AstronomicalDay{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return planetary.AstronomicalDay{}, res.Err
		}
		return res.Val.(planetary.AstronomicalDay), nil
	}
}

func (s *Service) fetchDay(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	var errs []error

	if len(s.sources) == 0 {
		errs = append(errs, fmt.Errorf("%w: no astronomical sources enabled", planetary.ErrConfiguration))
	}

	for _, src := range s.sources {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%w: %v", planetary.ErrSourceUnavailable, ctx.Err()))
			break
		}

		start := s.clock()
		day, err := src.Day(ctx, loc, date)
		if err == nil {
			err = day.Validate()
		}
		s.metrics.ObserveSource(src.Name(), Outcome(err), s.clock().Sub(start))

		if err == nil {
			if day.Source == "" {
				day.Source = src.Name()
			}
			s.log.Debug("astronomical day fetched",
				zap.String("source", src.Name()),
				zap.String("location", loc.Key()),
				zap.String("date", date.Format(dateLayout)),
				zap.Time("sunrise", day.Sunrise),
				zap.Time("sunset", day.Sunset))
			return day, nil
		}

		// Log and continue; a lower priority source may still answer.
		s.log.Warn("astronomical source failed",
			zap.String("source", src.Name()),
			zap.String("location", loc.Key()),
			zap.String("outcome", Outcome(err)),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	joined := errors.Join(errs...)
	if s.allowSynthetic && Degradable(joined) {
		s.log.Warn("no astronomical source answered; using synthetic day",
			zap.String("location", loc.Key()),
			zap.String("date", date.Format(dateLayout)),
			zap.Error(joined))
		return planetary.SyntheticDay(date, planetary.NominalOffset(loc.Longitude)), nil
	}
	return planetary.AstronomicalDay{}, joined
}

// Hours computes the hour table for loc on the given local date.
func (s *Service) Hours(ctx context.Context, loc planetary.Location, date time.Time, mode planetary.RulerMode) (planetary.HourTable, error) {
	day, err := s.Day(ctx, loc, date)
	if err != nil {
		return planetary.HourTable{}, err
	}

	table, err := planetary.NewHourTable(loc, day, mode)
	if err != nil {
		return planetary.HourTable{}, err
	}
	s.metrics.TableComputed(day.Synthetic)
	return table, nil
}

// Location returns the stored location, or the default one when nothing is stored.
func (s *Service) Location(ctx context.Context) (planetary.Location, error) {
	if s.repo == nil {
		if s.defaultLoc != nil {
			return *s.defaultLoc, nil
		}
		return planetary.Location{}, store.ErrNotFound
	}

	loc, err := s.repo.Get(ctx)
	if errors.Is(err, store.ErrNotFound) && s.defaultLoc != nil {
		return *s.defaultLoc, nil
	}
	return loc, err
}

// SetLocation validates and stores loc.
func (s *Service) SetLocation(ctx context.Context, loc planetary.Location) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if s.repo == nil {
		return ErrNoRepository
	}
	if err := s.repo.Set(ctx, loc); err != nil {
		return fmt.Errorf("store location: %w", err)
	}
	s.log.Info("location updated", zap.String("location", loc.Key()))
	return nil
}

// LocationHistory returns up to limit previously stored locations, newest
// first. Repositories that keep no history yield ErrNoRepository.
func (s *Service) LocationHistory(ctx context.Context, limit int) ([]store.Entry, error) {
	h, ok := s.repo.(interface {
		History(ctx context.Context, limit int) ([]store.Entry, error)
	})
	if !ok {
		return nil, ErrNoRepository
	}
	return h.History(ctx, limit)
}
