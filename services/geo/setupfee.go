package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"driftwell/models"

	"go.uber.org/zap"
)

// ErrUnavailable means the distance lookup is degraded. Callers fall
// back to the configured conservative maximum fee.
var ErrUnavailable = errors.New("setup fee service unavailable")

// SetupFeeService computes the location-dependent delivery surcharge.
type SetupFeeService interface {
	ComputeSetupFee(ctx context.Context, addr models.Address) (int64, error)
}

// distanceMatrixResponse mirrors the fields we read from the Google
// Distance Matrix API.
type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// MapsSetupFeeService prices setup as base + per-km over the driving
// distance from the depot, capped at MaxFeeCents.
type MapsSetupFeeService struct {
	APIKey       string
	DepotAddress string
	BaseURL      string // overridable for tests
	HTTPClient   *http.Client
	Logger       *zap.Logger

	BaseFeeCents int64
	PerKmCents   int64
	MaxFeeCents  int64
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

func (s *MapsSetupFeeService) ComputeSetupFee(ctx context.Context, addr models.Address) (int64, error) {
	if s.APIKey == "" {
		return 0, ErrUnavailable
	}

	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	dest := formatAddress(addr)
	reqURL := fmt.Sprintf("%s?origins=%s&destinations=%s&key=%s",
		baseURL,
		url.QueryEscape(s.DepotAddress),
		url.QueryEscape(dest),
		s.APIKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, ErrUnavailable
	}
	resp, err := client.Do(req)
	if err != nil {
		s.Logger.Warn("distance matrix request failed", zap.Error(err))
		return 0, ErrUnavailable
	}
	defer resp.Body.Close()

	var dm distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&dm); err != nil {
		s.Logger.Warn("distance matrix decode failed", zap.Error(err))
		return 0, ErrUnavailable
	}
	if dm.Status != "OK" || len(dm.Rows) == 0 || len(dm.Rows[0].Elements) == 0 ||
		dm.Rows[0].Elements[0].Status != "OK" {
		s.Logger.Warn("distance matrix returned no usable route",
			zap.String("status", dm.Status), zap.String("destination", dest))
		return 0, ErrUnavailable
	}

	meters := dm.Rows[0].Elements[0].Distance.Value
	km := int64((meters + 999) / 1000) // round up to whole km
	fee := s.BaseFeeCents + km*s.PerKmCents
	if fee > s.MaxFeeCents {
		fee = s.MaxFeeCents
	}
	return fee, nil
}

func formatAddress(addr models.Address) string {
	parts := []string{addr.Line1, addr.City, addr.Region, addr.PostalCode}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
