package almanac

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PartyShepherd/alchemelody/internal/metrics"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
	"github.com/PartyShepherd/alchemelody/internal/store"
)

var paris = planetary.Location{Latitude: 48.8566, Longitude: 2.3522}

// fakeSource answers with a fixed sunrise/sunset clock time for any date.
type fakeSource struct {
	name     string
	rise     time.Duration // after local midnight
	set      time.Duration
	offset   time.Duration
	err      error
	calls    int32
	delay    time.Duration
	release  chan struct{} // when set, Day blocks until closed or ctx ends
	mu       sync.Mutex
	requests []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.requests = append(f.requests, date.Format("2006-01-02"))
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return planetary.AstronomicalDay{}, fmt.Errorf("%s: %w", f.name, planetary.ErrSourceUnavailable)
		}
	}
	if f.err != nil {
		return planetary.AstronomicalDay{}, f.err
	}
	zone := planetary.FixedZone(f.offset)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, zone)
	return planetary.AstronomicalDay{
		Sunrise:   midnight.Add(f.rise),
		Sunset:    midnight.Add(f.set),
		UTCOffset: f.offset,
	}, nil
}

func (f *fakeSource) dates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func goodSource(name string, offset time.Duration) *fakeSource {
	return &fakeSource{name: name, rise: 7*time.Hour + 13*time.Minute, set: 17*time.Hour + 42*time.Minute, offset: offset}
}

func TestServiceDayUsesFirstHealthySource(t *testing.T) {
	down := &fakeSource{name: "down", err: fmt.Errorf("%w: timeout", planetary.ErrSourceUnavailable)}
	up := goodSource("up", time.Hour)
	spare := goodSource("spare", time.Hour)

	svc := NewService(nil, []Source{down, up, spare}, WithMetrics(metrics.New()))
	day, err := svc.Day(context.Background(), paris, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "up", day.Source)
	assert.False(t, day.Synthetic)
	assert.Equal(t, int32(1), atomic.LoadInt32(&down.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&spare.calls))
	assert.Equal(t, []string{"down", "up", "spare"}, svc.Sources())
}

func TestServiceDaySkipsDegenerateSource(t *testing.T) {
	broken := &fakeSource{name: "broken", rise: 18 * time.Hour, set: 6 * time.Hour}
	up := goodSource("up", 0)

	svc := NewService(nil, []Source{broken, up})
	day, err := svc.Day(context.Background(), paris, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "up", day.Source)
}

func TestServiceDayJoinsFailures(t *testing.T) {
	cfg := &fakeSource{name: "keyless", err: fmt.Errorf("%w: api key is not set", planetary.ErrConfiguration)}
	down := &fakeSource{name: "down", err: fmt.Errorf("%w: 503", planetary.ErrSourceUnavailable)}

	svc := NewService(nil, []Source{cfg, down})
	_, err := svc.Day(context.Background(), paris, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, planetary.ErrConfiguration)
	assert.ErrorIs(t, err, planetary.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "keyless")
	assert.Contains(t, err.Error(), "down")
}

func TestServiceDaySyntheticFallback(t *testing.T) {
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	t.Run("configuration error degrades", func(t *testing.T) {
		src := &fakeSource{name: "keyless", err: fmt.Errorf("%w: no key", planetary.ErrConfiguration)}
		svc := NewService(nil, []Source{src}, WithSyntheticFallback(true))

		day, err := svc.Day(context.Background(), paris, date)
		require.NoError(t, err)
		assert.True(t, day.Synthetic)
		assert.Equal(t, "synthetic", day.Source)
		assert.Equal(t, 15, day.Sunrise.Day())
	})

	t.Run("no sources degrades", func(t *testing.T) {
		svc := NewService(nil, nil, WithSyntheticFallback(true))
		day, err := svc.Day(context.Background(), paris, date)
		require.NoError(t, err)
		assert.True(t, day.Synthetic)
	})

	t.Run("invalid data is never masked", func(t *testing.T) {
		src := &fakeSource{name: "polar", err: fmt.Errorf("%w: polar night", planetary.ErrInvalidAstronomicalDay)}
		svc := NewService(nil, []Source{src}, WithSyntheticFallback(true))

		_, err := svc.Day(context.Background(), paris, date)
		assert.ErrorIs(t, err, planetary.ErrInvalidAstronomicalDay)
	})

	t.Run("disabled by default", func(t *testing.T) {
		svc := NewService(nil, nil)
		_, err := svc.Day(context.Background(), paris, date)
		assert.ErrorIs(t, err, planetary.ErrConfiguration)
	})
}

func TestServiceDayRejectsBadLocation(t *testing.T) {
	svc := NewService(nil, []Source{goodSource("up", 0)}, WithSyntheticFallback(true))
	for _, loc := range []planetary.Location{
		{Latitude: 91},
		{Longitude: -180.01},
		{Latitude: math.NaN()},
		{Latitude: 10, Longitude: math.NaN()},
	} {
		_, err := svc.Day(context.Background(), loc, time.Now())
		assert.ErrorIs(t, err, ErrInvalidLocation, loc.Key())
	}

	// No sources at all would otherwise degrade to a synthetic day.
	_, err := NewService(nil, nil, WithSyntheticFallback(true)).
		Day(context.Background(), planetary.Location{Latitude: math.NaN()}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidLocation)

	err = NewService(store.NewMemoryStore(1), nil).SetLocation(context.Background(), planetary.Location{Longitude: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestServiceDayCollapsesConcurrentRequests(t *testing.T) {
	src := goodSource("slow", 0)
	src.delay = 50 * time.Millisecond
	svc := NewService(nil, []Source{src})
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Day(context.Background(), paris, date)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&src.calls), int32(8))
}

func TestServiceDayCancelledCallerDoesNotFailOthers(t *testing.T) {
	src := goodSource("slow", 0)
	src.release = make(chan struct{})
	svc := NewService(nil, []Source{src}, WithSyntheticFallback(true))
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Day(ctxA, paris, date)
		errA <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.calls) == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		day planetary.AstronomicalDay
		err error
	}
	resB := make(chan result, 1)
	go func() {
		day, err := svc.Day(context.Background(), paris, date)
		resB <- result{day, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the fetch in flight

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(src.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.False(t, b.day.Synthetic)
	assert.Equal(t, "slow", b.day.Source)
}

func TestServiceDayFetchTimeout(t *testing.T) {
	src := goodSource("stuck", 0)
	src.release = make(chan struct{})
	defer close(src.release)
	svc := NewService(nil, []Source{src}, WithFetchTimeout(20*time.Millisecond))

	_, err := svc.Day(context.Background(), paris, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, planetary.ErrSourceUnavailable)
}

func TestServiceHours(t *testing.T) {
	svc := NewService(nil, []Source{goodSource("up", -5*time.Hour)})
	// 2024-01-15 is a Monday.
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	table, err := svc.Hours(context.Background(), paris, date, planetary.RulerWeekday)
	require.NoError(t, err)
	require.Len(t, table.Slots, planetary.HoursPerDay)
	assert.Equal(t, planetary.Moon, table.Slots[0].Planet)
	assert.Equal(t, 52*time.Minute+25*time.Second, table.Slots[0].Duration())
	assert.Equal(t, paris, table.Location)
}

func TestServiceNowPicksPlanetaryDay(t *testing.T) {
	offset := 2 * time.Hour
	zone := planetary.FixedZone(offset)
	src := goodSource("up", offset)
	svc := NewService(nil, []Source{src})

	t.Run("during daylight", func(t *testing.T) {
		now := time.Date(2024, time.January, 15, 9, 0, 0, 0, zone)
		snap, err := svc.Now(context.Background(), paris, now, planetary.RulerSun)
		require.NoError(t, err)

		assert.Equal(t, 15, snap.Table.Day.Sunrise.Day())
		assert.True(t, snap.Current.Contains(now))
		assert.True(t, snap.Current.Daytime)
		assert.Equal(t, planetary.Air, snap.Element)
		assert.Equal(t, planetary.PhaseAt(now), snap.Moon)
		assert.False(t, snap.Synthetic)
		_, off := snap.At.Zone()
		assert.Equal(t, 7200, off)
	})

	t.Run("before sunrise uses previous day", func(t *testing.T) {
		now := time.Date(2024, time.January, 15, 3, 0, 0, 0, zone)
		snap, err := svc.Now(context.Background(), paris, now, planetary.RulerSun)
		require.NoError(t, err)

		assert.Equal(t, 14, snap.Table.Day.Sunrise.Day())
		assert.True(t, snap.Current.Contains(now))
		assert.False(t, snap.Current.Daytime)
		assert.Equal(t, planetary.Earth, snap.Element)
	})
}

func TestServiceNowCorrectsGuessedDate(t *testing.T) {
	// Longitude suggests UTC+0 but the source reports UTC+14.
	offset := 14 * time.Hour
	src := goodSource("kiribati", offset)
	svc := NewService(nil, []Source{src})

	now := time.Date(2024, time.January, 15, 20, 0, 0, 0, time.UTC) // 10:00 on the 16th locally
	snap, err := svc.Now(context.Background(), planetary.Location{Latitude: 1.87, Longitude: 0}, now, planetary.RulerSun)
	require.NoError(t, err)

	assert.Equal(t, 16, snap.Table.Day.Date().Day())
	assert.True(t, snap.Current.Contains(now))
	assert.Equal(t, []string{"2024-01-15", "2024-01-16"}, src.dates())
}

func TestServiceLocation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(5)
	def := planetary.Location{Latitude: 1, Longitude: 2}

	svc := NewService(mem, nil)
	_, err := svc.Location(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	svc = NewService(mem, nil, WithDefaultLocation(def))
	got, err := svc.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	require.NoError(t, svc.SetLocation(ctx, paris))
	got, err = svc.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, paris, got)

	err = svc.SetLocation(ctx, planetary.Location{Longitude: 200})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	err = NewService(nil, nil).SetLocation(ctx, paris)
	assert.ErrorIs(t, err, ErrNoRepository)

	history, err := svc.LocationHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, paris, history[0].Location)

	_, err = NewService(nil, nil).LocationHistory(ctx, 0)
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestOutcomeAndDegradable(t *testing.T) {
	cases := []struct {
		err        error
		outcome    string
		degradable bool
	}{
		{nil, "ok", false},
		{fmt.Errorf("x: %w", planetary.ErrInvalidAstronomicalDay), "invalid", false},
		{fmt.Errorf("x: %w", planetary.ErrConfiguration), "configuration", true},
		{fmt.Errorf("x: %w", planetary.ErrSourceUnavailable), "unavailable", true},
		{context.DeadlineExceeded, "unavailable", true},
		{errors.New("boom"), "error", false},
		{errors.Join(planetary.ErrSourceUnavailable, planetary.ErrInvalidAstronomicalDay), "invalid", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.outcome, Outcome(tc.err), fmt.Sprint(tc.err))
		assert.Equal(t, tc.degradable, Degradable(tc.err), fmt.Sprint(tc.err))
	}
}
