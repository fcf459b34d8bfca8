package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/analytics-ceew/agri-google/internal/config"
	"github.com/analytics-ceew/agri-google/internal/models"
	"github.com/tidwall/gjson"
)

// ErrMissingAPIKey means no credential is configured. Fetches fail on it
// before any network call is made.
var ErrMissingAPIKey = errors.New("API key not configured")

// UpstreamError is a transport-level failure: the monitoring API was reached
// but answered with a non-success status.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("monitoring API returned status %d: %s", e.StatusCode, e.Body)
}

// DataError is a payload-level failure: the API answered successfully but the
// embedded landscape document is absent or malformed.
type DataError struct {
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// FetchResult bundles everything extracted from one successful fetch.
type FetchResult struct {
	Raw        json.RawMessage
	Collection *models.FeatureCollection
	Period     *models.TimePeriod
}

type LandscapeService struct {
	cfg    config.LandscapeServiceConfig
	client *http.Client
}

type ILandscapeService interface {
	FetchLandscape(cellID string) (*FetchResult, error)
}

func NewLandscapeService(cfg config.LandscapeServiceConfig) ILandscapeService {
	return &LandscapeService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchLandscape issues a single POST to the monitoring API for the given S2
// cell and returns the decoded feature collection plus the latest season
// across all fields. One attempt per call; retries are the user's decision.
func (s *LandscapeService) FetchLandscape(cellID string) (*FetchResult, error) {
	if s.cfg.APIKey == "" {
		log.Println("Agri API key not configured")
		return nil, ErrMissingAPIKey
	}

	payload := map[string]any{
		"locationSpecifier": map[string]any{
			"s2CellId": cellID,
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1:monitorLandscape?key=%s", s.cfg.APIBaseURL, s.cfg.APIKey)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Error calling monitoring API: %v", err)
		return nil, fmt.Errorf("failed to call monitoring API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Error reading response body: %v", err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Printf("Monitoring API returned non-success status: %d, body: %s", resp.StatusCode, string(body))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	collection, err := ParseMonitoredLandscape(body)
	if err != nil {
		log.Printf("Error parsing monitoring response: %v", err)
		return nil, err
	}

	return &FetchResult{
		Raw:        json.RawMessage(body),
		Collection: collection,
		Period:     LatestPeriod(collection.Features),
	}, nil
}

// ParseMonitoredLandscape extracts the serialized GeoJSON document embedded at
// monitoredLandscape.geojson and decodes it into a typed collection.
func ParseMonitoredLandscape(raw []byte) (*models.FeatureCollection, error) {
	embedded := gjson.GetBytes(raw, "monitoredLandscape.geojson")
	if !embedded.Exists() || embedded.String() == "" {
		return nil, &DataError{Message: "response contains no monitored landscape payload"}
	}

	var collection models.FeatureCollection
	if err := json.Unmarshal([]byte(embedded.String()), &collection); err != nil {
		return nil, &DataError{Message: "failed to decode embedded GeoJSON", Err: err}
	}
	return &collection, nil
}

// LatestPeriod scans every prediction of every feature and returns the valid
// one (both timestamps > 0) with the maximum start timestamp, or nil when no
// feature carries a valid prediction. The comparison is strict, so the first
// encountered maximum wins ties regardless of input order.
func LatestPeriod(features []models.Feature) *models.TimePeriod {
	var latest *models.TimePeriod
	var maxStart int64
	for _, feature := range features {
		for _, pred := range feature.Properties.MonitoringPrediction {
			if !pred.Valid() {
				continue
			}
			if pred.StartTimestampSec > maxStart {
				maxStart = pred.StartTimestampSec
				latest = &models.TimePeriod{
					PeriodKey: fmt.Sprintf("%d_%d", pred.StartTimestampSec, pred.EndTimestampSec),
					Label: fmt.Sprintf("%s - %s",
						TimestampToMonthYear(pred.StartTimestampSec),
						TimestampToMonthYear(pred.EndTimestampSec)),
					StartTs: pred.StartTimestampSec,
					EndTs:   pred.EndTimestampSec,
				}
			}
		}
	}
	return latest
}

// TimestampToMonthYear formats a Unix timestamp as "January 2006" in UTC, or
// "N/A" for zero and negative values.
func TimestampToMonthYear(timestamp int64) string {
	if timestamp <= 0 {
		return "N/A"
	}
	return time.Unix(timestamp, 0).UTC().Format("January 2006")
}
