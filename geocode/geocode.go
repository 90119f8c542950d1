// Package geocode resolves coordinates to a human-readable address via the
// TrueWay ReverseGeocode API. Credentials come from the server environment,
// never from client code.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"chorely/models"
)

const defaultBaseURL = "https://trueway-geocoding.p.rapidapi.com"

type Client struct {
	BaseURL    string
	APIKey     string
	APIHost    string
	HTTPClient *http.Client
}

// NewFromEnv builds a client from RAPIDAPI_KEY / RAPIDAPI_HOST. Returns nil
// when the key is unset, which callers treat as geocoding disabled.
func NewFromEnv() *Client {
	key := os.Getenv("RAPIDAPI_KEY")
	if key == "" {
		return nil
	}
	host := os.Getenv("RAPIDAPI_HOST")
	if host == "" {
		host = "trueway-geocoding.p.rapidapi.com"
	}
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  key,
		APIHost: host,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reverseGeocodeResponse struct {
	Results []struct {
		Address string `json:"address"`
	} `json:"results"`
}

// ReverseGeocode returns the first matching address for the coordinates,
// or models.ErrNotFound when the API knows no address there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	query.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/ReverseGeocode?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-RapidAPI-Key", c.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.APIHost)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %d", resp.StatusCode)
	}

	var decoded reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("reverse geocode decode: %w", err)
	}
	if len(decoded.Results) == 0 || decoded.Results[0].Address == "" {
		return "", models.ErrNotFound
	}
	return decoded.Results[0].Address, nil
}
