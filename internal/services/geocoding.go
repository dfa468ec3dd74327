package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
)

// HEREReverseGeocodeResponse represents the response from HERE Reverse Geocoding API
type HEREReverseGeocodeResponse struct {
	Items []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
		Address struct {
			Label string `json:"label"`
		} `json:"address"`
	} `json:"items"`
}

// GeocodingService resolves coordinates into human-readable addresses
// using the HERE Maps API. With an empty API key the service is disabled
// and ReverseGeocode returns an empty address.
type GeocodingService struct {
	apiKey string
	client *http.Client
}

// NewGeocodingService creates a new HERE geocoding service
func NewGeocodingService(apiKey string) *GeocodingService {
	return &GeocodingService{
		apiKey: apiKey,
		client: &http.Client{},
	}
}

// Enabled reports whether an API key was configured.
func (gs *GeocodingService) Enabled() bool {
	return gs.apiKey != ""
}

// ReverseGeocode resolves a lat/lng pair to an address label.
// Returns an empty string when disabled or when HERE has no match.
func (gs *GeocodingService) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if gs.apiKey == "" {
		return "", nil
	}

	baseURL := "https://revgeocode.search.hereapi.com/v1/revgeocode"
	params := url.Values{}
	params.Add("at", fmt.Sprintf("%.6f,%.6f", lat, lng))
	params.Add("lang", "en-US")
	params.Add("apiKey", gs.apiKey)

	fullURL := fmt.Sprintf("%s?%s", baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocoding request: %w", err)
	}

	resp, err := gs.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("reverse geocoding API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result HEREReverseGeocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse reverse geocoding response: %w", err)
	}

	if len(result.Items) == 0 {
		return "", nil
	}

	label := result.Items[0].Address.Label
	log.Printf("🌍 Reverse geocoded %.6f, %.6f -> %s", lat, lng, label)

	return label, nil
}
