package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tastemap/models"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

// Amenities are the point-of-interest categories requested from the source.
var Amenities = []string{"restaurant", "cafe", "fast_food", "bar", "pub", "nightclub"}

// Cache stores raw upstream responses. rdx.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
}

type Client struct {
	URL        string
	HTTPClient *http.Client
	UserAgent  string
	Cache      Cache
	CacheTTL   time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchError reports a failed call to the geodata source.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("overpass: HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("overpass: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BuildQuery renders the Overpass QL query selecting every amenity within radius of c.
func BuildQuery(c models.Point, radiusMeters int, timeout time.Duration) string {
	secs := int(timeout.Seconds())
	if secs <= 0 {
		secs = 25
	}
	selector := fmt.Sprintf(`["amenity"~"^(%s)$"](around:%d,%f,%f)`,
		strings.Join(Amenities, "|"), radiusMeters, c.Lat, c.Lng)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", secs)
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s%s;\n", kind, selector)
	}
	b.WriteString(");\nout center;")
	return b.String()
}

// FetchNearby queries the source once and returns the normalised restaurants.
func (c *Client) FetchNearby(ctx context.Context, at models.Point, radiusMeters int) ([]models.ObservedRestaurant, error) {
	key := fmt.Sprintf("overpass:%.4f:%.4f:%d", at.Lat, at.Lng, radiusMeters)

	body, cached := c.cached(ctx, key)
	if !cached {
		var err error
		body, err = c.post(ctx, BuildQuery(at, radiusMeters, c.HTTPClient.Timeout))
		if err != nil {
			return nil, err
		}
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if !cached && c.Cache != nil {
		if err := c.Cache.SetWithExpiry(ctx, key, string(body), c.CacheTTL); err != nil {
			log.Printf("overpass cache write %s: %v", key, err)
		}
	}

	out := make([]models.ObservedRestaurant, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if obs, ok := normalize(el); ok {
			out = append(out, obs)
		}
	}
	return out, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.Cache == nil {
		return nil, false
	}
	val, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("overpass cache read %s: %v", key, err)
		return nil, false
	}
	return []byte(val), ok
}

func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(query))
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}
