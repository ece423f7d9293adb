package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mlechner/polier/internal/domain"
)

// ErrUnavailable is returned when the forecast service cannot be
// reached. Callers treat weather as best-effort and continue without it.
var ErrUnavailable = errors.New("weather service unavailable")

const (
	// DefaultEndpoint is the Open-Meteo forecast API.
	DefaultEndpoint = "https://api.open-meteo.com"
	// requestTimeout keeps weather lookups from slowing a pipeline run.
	requestTimeout = 3 * time.Second
	// cacheTTL is how long a fetched forecast stays fresh.
	cacheTTL = 6 * time.Hour

	// Daily precipitation above this (mm) or wind above this (km/h)
	// makes a day unsuitable for exposed outdoor work.
	poorPrecipitationMM = 10.0
	poorWindKMH         = 50.0
	fairPrecipitationMM = 2.0
	fairWindKMH         = 30.0
)

// DayForecast rates one calendar day at a site.
type DayForecast struct {
	Date   time.Time
	Rating domain.WeatherRating
}

// Provider returns a site forecast for the coming days.
type Provider interface {
	Forecast(ctx context.Context, lat, lng float64, days int) ([]DayForecast, error)
}

type httpProvider struct {
	endpoint string
	http     *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	forecast []DayForecast
	fetched  time.Time
}

// NewHTTPProvider creates a Provider against an Open-Meteo compatible
// endpoint. Pass an empty endpoint for the public API.
func NewHTTPProvider(endpoint string) Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &httpProvider{
		endpoint: endpoint,
		http:     &http.Client{Timeout: requestTimeout},
		cache:    make(map[string]cacheEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// meteoResponse is the subset of the Open-Meteo daily forecast we read.
type meteoResponse struct {
	Daily struct {
		Time             []string  `json:"time"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

func (p *httpProvider) Forecast(ctx context.Context, lat, lng float64, days int) ([]DayForecast, error) {
	if days <= 0 {
		return nil, nil
	}

	key := fmt.Sprintf("%.2f:%.2f:%d", lat, lng, days)
	p.mu.Lock()
	if entry, ok := p.cache[key]; ok && p.now().Sub(entry.fetched) < cacheTTL {
		p.mu.Unlock()
		return entry.forecast, nil
	}
	p.mu.Unlock()

	forecast, err := p.fetch(ctx, lat, lng, days)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{forecast: forecast, fetched: p.now()}
	p.mu.Unlock()

	return forecast, nil
}

func (p *httpProvider) fetch(ctx context.Context, lat, lng float64, days int) ([]DayForecast, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&daily=precipitation_sum,wind_speed_10m_max&forecast_days=%d",
		p.endpoint, lat, lng, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var mr meteoResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}

	forecast := make([]DayForecast, 0, len(mr.Daily.Time))
	for i, day := range mr.Daily.Time {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		var precip, wind float64
		if i < len(mr.Daily.PrecipitationSum) {
			precip = mr.Daily.PrecipitationSum[i]
		}
		if i < len(mr.Daily.WindSpeedMax) {
			wind = mr.Daily.WindSpeedMax[i]
		}
		forecast = append(forecast, DayForecast{
			Date:   date,
			Rating: rateDay(precip, wind),
		})
	}
	return forecast, nil
}

func rateDay(precipitationMM, windKMH float64) domain.WeatherRating {
	switch {
	case precipitationMM > poorPrecipitationMM || windKMH > poorWindKMH:
		return domain.WeatherPoor
	case precipitationMM > fairPrecipitationMM || windKMH > fairWindKMH:
		return domain.WeatherFair
	default:
		return domain.WeatherGood
	}
}

// PoorDays counts poor-rated days in a forecast.
func PoorDays(forecast []DayForecast) int {
	count := 0
	for _, d := range forecast {
		if d.Rating == domain.WeatherPoor {
			count++
		}
	}
	return count
}
