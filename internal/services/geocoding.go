package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"travelmap-api/internal/models"
)

const nominatimURL = "https://nominatim.openstreetmap.org/reverse"

// Performs reverse geocoding using the OpenStreetMap Nominatim
// API with caching and rate limiting.
type GeocodingService struct {
	baseURL     string
	cache       map[string]string
	cacheMutex  sync.RWMutex
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Models the subset of Nominatim's response that we care about
// (city/town/village + country).
type NominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// Returns a geocoder with an in-memory cache, a shared HTTP client and
// Nominatim-compliant rate limiting (1 request/sec).
func NewGeocodingService() *GeocodingService {
	return newGeocodingService(nominatimURL, rate.Limit(1))
}

func newGeocodingService(baseURL string, limit rate.Limit) *GeocodingService {
	return &GeocodingService{
		baseURL:     baseURL,
		cache:       make(map[string]string),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// ReverseGeocode returns "City, Country" (or the most specific part
// available) for the coordinates.
func (g *GeocodingService) ReverseGeocode(ctx context.Context, c models.Coordinates) (string, error) {
	// Key rounded to avoid cache fragmentation
	key := fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)

	g.cacheMutex.RLock()
	if cached := g.cache[key]; cached != "" {
		g.cacheMutex.RUnlock()
		return cached, nil
	}
	g.cacheMutex.RUnlock()

	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := g.fetchLocation(ctx, c.Lat, c.Lng)
	if err != nil {
		return "", err
	}

	g.cacheMutex.Lock()
	g.cache[key] = result
	g.cacheMutex.Unlock()

	return result, nil
}

// Performs the actual HTTP request and parses the response.
func (g *GeocodingService) fetchLocation(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", "travelmap-api")
	req.Header.Set("Accept-Language", "en")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var data NominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	return extractLocation(data), nil
}

// Chooses the most specific available location from the response.
func extractLocation(n NominatimResponse) string {
	city := firstNonEmpty(
		n.Address.City,
		n.Address.Town,
		n.Address.Village,
	)
	country := n.Address.Country

	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}

// Returns the first non-empty string in the list.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
