// Package sources implements almanac.Source for remote weather/astronomy APIs
// and an offline almanac.
package sources

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PartyShepherd/alchemelody/internal/almanac"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// Source names accepted by Build.
const (
	NameOpenWeather = "openweather"
	NameWeatherAPI  = "weatherapi"
	NameOpenMeteo   = "openmeteo"
	NameSolar       = "solar"
)

// Names lists every known source.
var Names = []string{NameOpenWeather, NameWeatherAPI, NameOpenMeteo, NameSolar}

// Settings carries what the sources need from configuration.
type Settings struct {
	Client            *http.Client
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	SolarTimezone     string
}

// Build creates the named sources in the given order.
func Build(names []string, st Settings) ([]almanac.Source, error) {
	client := st.Client
	if client == nil {
		client = http.DefaultClient
	}

	var out []almanac.Source
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case NameOpenWeather:
			out = append(out, NewOpenWeatherSource(client, st.OpenWeatherAPIKey))
		case NameWeatherAPI:
			out = append(out, NewWeatherAPISource(client, st.WeatherAPIKey))
		case NameOpenMeteo:
			out = append(out, NewOpenMeteoSource(client))
		case NameSolar:
			src, err := NewSolarSource(st.SolarTimezone)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		default:
			return nil, fmt.Errorf("%w: unknown astronomical source %q (known: %s)",
				planetary.ErrConfiguration, raw, strings.Join(Names, ", "))
		}
	}
	return out, nil
}
