package geocode

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

	"tastemap/models"
	"tastemap/utils"
)

const DefaultURL = "https://nominatim.openstreetmap.org"

// Client talks to a Nominatim compatible geocoder.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}
}

// Place is a resolved location.
type Place struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
}

// Address is a reverse geocoding result. Short is a compact form such as
// "12, Main St, Manly, Sydney".
type Address struct {
	Short       string `json:"address"`
	DisplayName string `json:"displayName"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
	} `json:"address"`
}

// Search resolves free text to the best matching place.
func (c *Client) Search(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, utils.Validation("Location query is required")
	}
	params := url.Values{"format": {"json"}, "q": {query}, "limit": {"1"}}

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, utils.NotFound("Location not found")
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return Place{}, utils.Upstream("Geocoding failed", fmt.Errorf("bad coordinates %q,%q", results[0].Lat, results[0].Lon))
	}
	return Place{Lat: lat, Lng: lng, DisplayName: results[0].DisplayName}, nil
}

// Reverse describes the address at p.
func (c *Client) Reverse(ctx context.Context, p models.Point) (Address, error) {
	if !p.Valid() {
		return Address{}, utils.Validation("Invalid coordinates")
	}
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(p.Lng, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}

	var res reverseResult
	if err := c.get(ctx, "/reverse", params, &res); err != nil {
		return Address{}, err
	}
	if res.DisplayName == "" {
		return Address{}, utils.NotFound("Address not found")
	}
	return Address{Short: shortAddress(res), DisplayName: res.DisplayName}, nil
}

func shortAddress(res reverseResult) string {
	a := res.Address
	var parts []string
	for _, p := range []string{a.HouseNumber, a.Road, a.Suburb, firstNonEmpty(a.City, a.Town, a.Village)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	fields := strings.Split(res.DisplayName, ",")
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, ",")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return utils.Upstream("Geocoding failed", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return utils.Upstream("Geocoding failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return utils.Upstream("Geocoding failed", fmt.Errorf("nominatim: HTTP status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return utils.Upstream("Geocoding failed", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
