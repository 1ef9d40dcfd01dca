package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // tz_id lookups in minimal containers

	"github.com/sony/gobreaker"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// WeatherAPISource reads sunrise and sunset from WeatherAPI.com's astronomy
// endpoint. Times are local to the returned tz_id.
type WeatherAPISource struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPISource(client *http.Client, apiKey string) *WeatherAPISource {
	return &WeatherAPISource{
		name:    NameWeatherAPI,
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/astronomy.json",
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff},
		circuit: newBreaker(NameWeatherAPI),
	}
}

func (s *WeatherAPISource) Name() string {
	return s.name
}

func (s *WeatherAPISource) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	if s.apiKey == "" {
		return planetary.AstronomicalDay{}, fmt.Errorf("%w: weatherapi api key is not set", planetary.ErrConfiguration)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", s.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", formatCoord(loc.Latitude)+","+formatCoord(loc.Longitude))
		values.Set("dt", date.Format("2006-01-02"))

		return http.NewRequest(http.MethodGet, s.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return planetary.AstronomicalDay{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			TzID string `json:"tz_id"`
		} `json:"location"`
		Astronomy struct {
			Astro struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			} `json:"astro"`
		} `json:"astronomy"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "decode response: %v", err)
	}
	if payload.Location.TzID == "" {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "response lacks location.tz_id")
	}

	tz, err := time.LoadLocation(payload.Location.TzID)
	if err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "unknown time zone %q", payload.Location.TzID)
	}

	sunrise, err := parseClock(payload.Astronomy.Astro.Sunrise, date, tz)
	if err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "sunrise: %v", err)
	}
	sunset, err := parseClock(payload.Astronomy.Astro.Sunset, date, tz)
	if err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "sunset: %v", err)
	}

	_, secs := sunrise.Zone()
	offset := time.Duration(secs) * time.Second
	zone := planetary.FixedZone(offset)
	return planetary.AstronomicalDay{
		Sunrise:   sunrise.In(zone),
		Sunset:    sunset.In(zone),
		UTCOffset: offset,
		Source:    s.name,
	}, nil
}

// parseClock turns "06:45 AM" into an instant on date in tz.
func parseClock(s string, date time.Time, tz *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(strings.ToLower(s), "no ") {
		return time.Time{}, fmt.Errorf("no value (%q)", s)
	}
	clock, err := time.Parse("03:04 PM", strings.ToUpper(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, tz), nil
}
