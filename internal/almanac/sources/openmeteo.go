package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// OpenMeteoSource reads daily sunrise and sunset from Open-Meteo. No API key
// is required.
type OpenMeteoSource struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoSource(client *http.Client) *OpenMeteoSource {
	return &OpenMeteoSource{
		name:    NameOpenMeteo,
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff},
		circuit: newBreaker(NameOpenMeteo),
	}
}

func (s *OpenMeteoSource) Name() string {
	return s.name
}

func (s *OpenMeteoSource) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	day := date.Format("2006-01-02")

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", formatCoord(loc.Latitude))
		values.Set("longitude", formatCoord(loc.Longitude))
		values.Set("daily", "sunrise,sunset")
		values.Set("timezone", "auto")
		values.Set("start_date", day)
		values.Set("end_date", day)

		return http.NewRequest(http.MethodGet, s.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return planetary.AstronomicalDay{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		UTCOffsetSeconds *int64 `json:"utc_offset_seconds"`
		Daily            struct {
			Sunrise []string `json:"sunrise"`
			Sunset  []string `json:"sunset"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "decode response: %v", err)
	}
	if payload.UTCOffsetSeconds == nil || len(payload.Daily.Sunrise) == 0 || len(payload.Daily.Sunset) == 0 {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "response lacks daily sunrise, sunset or utc_offset_seconds")
	}

	offset := time.Duration(*payload.UTCOffsetSeconds) * time.Second
	zone := planetary.FixedZone(offset)

	sunrise, err := time.ParseInLocation("2006-01-02T15:04", payload.Daily.Sunrise[0], zone)
	if err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "sunrise: %v", err)
	}
	sunset, err := time.ParseInLocation("2006-01-02T15:04", payload.Daily.Sunset[0], zone)
	if err != nil {
		return planetary.AstronomicalDay{}, invalidDay(s.name, "sunset: %v", err)
	}

	return planetary.AstronomicalDay{
		Sunrise:   sunrise,
		Sunset:    sunset,
		UTCOffset: offset,
		Source:    s.name,
	}, nil
}
