package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// OpenWeatherSource reads sunrise, sunset and the UTC offset from the
// OpenWeatherMap current weather endpoint. It can only answer for the
// location's current day.
type OpenWeatherSource struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherSource(client *http.Client, apiKey string) *OpenWeatherSource {
	return &OpenWeatherSource{
		name:    NameOpenWeather,
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff},
		circuit: newBreaker(NameOpenWeather),
	}
}

func (s *OpenWeatherSource) Name() string {
	return s.name
}

func (s *OpenWeatherSource) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	if s.apiKey == "" {
		return planetary.AstronomicalDay{}, fmt.Errorf("%w: openweather api key is not set", planetary.ErrConfiguration)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", formatCoord(loc.Latitude))
		values.Set("lon", formatCoord(loc.Longitude))
		values.Set("appid", s.apiKey)

		return http.NewRequest(http.MethodGet, s.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return planetary.AstronomicalDay{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Timezone *int64 `json:"timezone"`
		Sys      struct {
			Sunrise *int64 `json:"sunrise"`
			Sunset  *int64 `json:"sunset"`
		} `json:"sys"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "decode response: %v", err)
	}
	if payload.Timezone == nil || payload.Sys.Sunrise == nil || payload.Sys.Sunset == nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "response lacks sys.sunrise, sys.sunset or timezone")
	}
	// Polar day or night is reported as zero epochs.
	if *payload.Sys.Sunrise == 0 || *payload.Sys.Sunset == 0 {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "no sunrise or sunset at %s", loc.Key())
	}

	offset := time.Duration(*payload.Timezone) * time.Second
	zone := planetary.FixedZone(offset)
	day := planetary.AstronomicalDay{
		Sunrise:   time.Unix(*payload.Sys.Sunrise, 0).In(zone),
		Sunset:    time.Unix(*payload.Sys.Sunset, 0).In(zone),
		UTCOffset: offset,
		Source:    s.name,
	}

	if !sameDate(day.Sunrise, date) {
		return planetary.AstronomicalDay{}, fmt.Errorf("%w: openweather serves only the current day (have %s, want %s)",
			planetary.ErrSourceUnavailable, day.Sunrise.Format("2006-01-02"), date.Format("2006-01-02"))
	}
	return day, nil
}
