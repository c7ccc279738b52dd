// Package geocode wraps the Nominatim reverse-geocoding lookup.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	logrus "github.com/sirupsen/logrus"
)

// UnknownLocation is returned whenever the lookup fails for any reason.
const UnknownLocation = "Unknown Location"

// Resolver turns coordinates into a human-readable place name. Resolve is
// best-effort and never fails: callers always get a usable string.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) string
}

// Nominatim resolves place names against the OpenStreetMap Nominatim API.
type Nominatim struct {
	BaseURL string
	client  *http.Client
}

// NewNominatim returns a resolver against the given base URL (the public
// https://nominatim.openstreetmap.org if empty). The client timeout bounds
// how long a lookup may stall the caller.
func NewNominatim(baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &Nominatim{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve performs a single reverse lookup. No retry, no caching; any
// network failure, non-200 response or malformed payload falls back to
// UnknownLocation.
func (n *Nominatim) Resolve(ctx context.Context, lat, lng float64) string {
	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json", n.BaseURL, lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logrus.WithError(err).Warn("Failed to build reverse-geocode request.")
		return UnknownLocation
	}
	req.Header.Set("User-Agent", "BusTrackerApp/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"lat": lat,
			"lng": lng,
		}).Warn("Reverse-geocode request failed.")
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("Reverse-geocode returned non-200 status.")
		return UnknownLocation
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logrus.WithError(err).Warn("Failed to decode reverse-geocode response.")
		return UnknownLocation
	}
	if payload.DisplayName == "" {
		return UnknownLocation
	}
	return payload.DisplayName
}
