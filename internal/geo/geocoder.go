package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Results returned in place of an address. ReverseGeocode never fails; these
// strings are stored as the location name instead.
const (
	NotFoundName    = "Nearest Location Not Found"
	NoDataName      = "No Data Received"
	ParseErrorName  = "JSON Parsing Error"
	DefaultEndpoint = "https://us1.locationiq.com/v1/reverse"

	cacheTTL = 24 * time.Hour
)

// Geocoder turns coordinates into a display address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

type locationIQResponse struct {
	DisplayName string `json:"display_name"`
	Address     *struct {
		Road    string `json:"road"`
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// LocationIQ is a reverse geocoder backed by the LocationIQ API.
type LocationIQ struct {
	endpoint string
	apiKey   string
	client   *http.Client
	cache    *cache.Cache
}

// NewLocationIQ returns a client for endpoint (DefaultEndpoint when empty).
// The client sets no timeout of its own; callers bound lookups with ctx.
func NewLocationIQ(endpoint, apiKey string) *LocationIQ {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &LocationIQ{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
		cache:    cache.New(cacheTTL, cacheTTL*2),
	}
}

// ReverseGeocode returns "road, suburb, city, state, country" with missing
// parts left out, or one of the sentinel names when no address is available.
func (g *LocationIQ) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	key := cacheKey(lat, lon)
	if cached, found := g.cache.Get(key); found {
		return cached.(string)
	}

	if g.apiKey == "" {
		logrus.Warn("LocationIQ API key not configured, skipping reverse geocoding.")
		return NotFoundName
	}

	name, ok := g.lookup(ctx, lat, lon)
	if ok {
		g.cache.Set(key, name, cache.DefaultExpiration)
	}
	return name
}

func (g *LocationIQ) lookup(ctx context.Context, lat, lon float64) (string, bool) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	log := logrus.WithFields(logrus.Fields{"latitude": lat, "longitude": lon})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		log.WithError(err).Error("Failed to build reverse geocoding request.")
		return NotFoundName, false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("Reverse geocoding request failed.")
		return NotFoundName, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Warn("Failed to read reverse geocoding response.")
		return NotFoundName, false
	}
	if len(body) == 0 {
		log.WithField("status", resp.StatusCode).Warn("Reverse geocoding returned no data.")
		return NoDataName, false
	}

	var decoded locationIQResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		log.WithError(err).Warn("Failed to parse reverse geocoding response.")
		return ParseErrorName, false
	}
	if decoded.Address == nil {
		log.WithField("status", resp.StatusCode).Info("Reverse geocoding found no address.")
		return NotFoundName, false
	}

	a := decoded.Address
	var parts []string
	for _, p := range []string{a.Road, a.Suburb, a.City, a.State, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return NotFoundName, false
	}
	return strings.Join(parts, ", "), true
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lon)
}
