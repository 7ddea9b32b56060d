// Package weather implements the get_weather tool backed by the Open-Meteo
// geocoding and forecast services.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/telepath-bot/telepath/internal/httpx"
	"github.com/telepath-bot/telepath/internal/tools"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// Config controls the upstream endpoints (overridable for tests).
type Config struct {
	GeocodeURL  string
	ForecastURL string
}

// Tool resolves a free-text place name and reports current conditions, with
// an optional single-day forecast when the user asked about a relative day.
type Tool struct {
	client      *httpx.Client
	geocodeURL  string
	forecastURL string
	now         func() time.Time
}

// NewTool creates the weather tool.
func NewTool(client *httpx.Client, cfg *Config) *Tool {
	t := &Tool{
		client:      client,
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
		now:         time.Now,
	}
	if cfg != nil {
		if cfg.GeocodeURL != "" {
			t.geocodeURL = cfg.GeocodeURL
		}
		if cfg.ForecastURL != "" {
			t.forecastURL = cfg.ForecastURL
		}
	}
	return t
}

// Name implements tools.Tool.
func (t *Tool) Name() string { return "get_weather" }

// Description implements tools.Tool.
func (t *Tool) Description() string {
	return "Get current weather for a place, with an optional forecast when the user asks about today, tomorrow or the weekend."
}

// Schema implements tools.Tool.
func (t *Tool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "Free-text place name, e.g. \"Hong Kong\" or \"倫敦\"",
			},
			"when": map[string]any{
				"type":        "string",
				"description": "Optional relative day: today, tomorrow or weekend (Cantonese equivalents accepted)",
			},
		},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}

type args struct {
	Location string `json:"location"`
	When     string `json:"when"`
}

type geoResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    int     `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode any     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		WeatherCode []any     `json:"weather_code"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// Execute implements tools.Tool. Every data gap degrades to explanatory text;
// the tool never returns an error for upstream failures.
func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*tools.Result, error) {
	var a args
	if err := json.Unmarshal(params, &a); err != nil {
		a = args{}
	}

	location := strings.TrimSpace(a.Location)
	if location == "" {
		return tools.TextResult("No location was given. Ask the user which place they want the weather for."), nil
	}

	place, found, err := t.geocode(ctx, location)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("The weather service could not be reached (%v). Tell the user live weather is unavailable right now.", err)), nil
	}
	if !found {
		return tools.TextResult(fmt.Sprintf("No place called %q was found. Ask the user to clarify the location.", location)), nil
	}

	fc, err := t.forecast(ctx, place.lat, place.lon)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("The weather service could not be reached (%v). Tell the user live weather is unavailable right now.", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s, %s: %s, %.1f°C, wind %.1f km/h, humidity %d%%.",
		place.name, place.country,
		codeText(fc.Current.WeatherCode),
		fc.Current.Temperature, fc.Current.WindSpeed, fc.Current.Humidity)

	if offset, ok := dayOffset(a.When, t.now()); ok {
		if offset < len(fc.Daily.WeatherCode) && offset < len(fc.Daily.TempMax) && offset < len(fc.Daily.TempMin) {
			fmt.Fprintf(&b, " Forecast for %s: %s, %.1f°C to %.1f°C.",
				strings.TrimSpace(strings.ToLower(a.When)),
				codeText(fc.Daily.WeatherCode[offset]),
				fc.Daily.TempMin[offset], fc.Daily.TempMax[offset])
		}
	}

	return tools.TextResult(b.String()), nil
}

type place struct {
	name    string
	country string
	lat     float64
	lon     float64
}

func (t *Tool) geocode(ctx context.Context, location string) (place, bool, error) {
	u := fmt.Sprintf("%s?name=%s&count=1&language=en&format=json", t.geocodeURL, url.QueryEscape(location))
	resp, err := t.client.Get(ctx, u)
	if err != nil {
		return place{}, false, err
	}
	if resp.StatusCode != 200 {
		return place{}, false, fmt.Errorf("geocoding returned HTTP %d", resp.StatusCode)
	}
	var geo geoResponse
	if err := json.Unmarshal(resp.Body, &geo); err != nil {
		return place{}, false, fmt.Errorf("geocoding response unreadable: %w", err)
	}
	if len(geo.Results) == 0 {
		return place{}, false, nil
	}
	r := geo.Results[0]
	return place{name: r.Name, country: r.Country, lat: r.Latitude, lon: r.Longitude}, true, nil
}

func (t *Tool) forecast(ctx context.Context, lat, lon float64) (*forecastResponse, error) {
	u := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code&daily=weather_code,temperature_2m_max,temperature_2m_min&timezone=auto&forecast_days=7",
		t.forecastURL, lat, lon)
	resp, err := t.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("forecast returned HTTP %d", resp.StatusCode)
	}
	var fc forecastResponse
	if err := json.Unmarshal(resp.Body, &fc); err != nil {
		return nil, fmt.Errorf("forecast response unreadable: %w", err)
	}
	return &fc, nil
}

// dayOffset maps a relative-day keyword to an index into the daily forecast
// arrays: 0 for today, 1 for tomorrow, days-until-Saturday for the weekend.
func dayOffset(when string, now time.Time) (int, bool) {
	switch strings.TrimSpace(strings.ToLower(when)) {
	case "today", "今日", "今天":
		return 0, true
	case "tomorrow", "聽日", "明日", "明天":
		return 1, true
	case "weekend", "週末", "周末":
		return int((time.Saturday - now.Weekday() + 7) % 7), true
	default:
		return 0, false
	}
}

// wmoCodes maps WMO weather codes to short descriptions.
var wmoCodes = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "foggy",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	71: "slight snow",
	73: "moderate snow",
	75: "heavy snow",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with hail",
	99: "thunderstorm with heavy hail",
}

// codeText maps a raw weather_code value to text. Unknown or non-numeric
// codes fall back to a generic description.
func codeText(raw any) string {
	f, ok := raw.(float64)
	if !ok {
		return "unclear conditions"
	}
	if desc, ok := wmoCodes[int(f)]; ok {
		return desc
	}
	return "unclear conditions"
}
