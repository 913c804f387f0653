package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr1hm/go-quake-map/internal/models"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMalformedFeature = errors.New("malformed feature")
)

type usgsResponse struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   *usgsGeometry  `json:"geometry"`
}
type usgsProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"` // unix millis
}
type usgsGeometry struct {
	Coordinates []*float64 `json:"coordinates"` // [lon, lat, depth]; null decodes to nil
}

// FeatureResult is the outcome of decoding one feature. Exactly one of Quake
// or Err is meaningful.
type FeatureResult struct {
	Index int
	Quake models.Earthquake
	Err   error
}

// Collection is a fetched feed, one result per feature in feed order.
type Collection struct {
	URL      string
	Features []FeatureResult
}

func (c *Collection) Valid() []models.Earthquake {
	quakes := make([]models.Earthquake, 0, len(c.Features))
	for _, f := range c.Features {
		if f.Err == nil {
			quakes = append(quakes, f.Quake)
		}
	}
	return quakes
}

func (c *Collection) Failed() []FeatureResult {
	var failed []FeatureResult
	for _, f := range c.Features {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Client fetches the earthquake feed described by a Query.
type Client struct {
	query      Query
	httpClient *http.Client
	clock      clockwork.Clock
}

func NewClient(q Query, timeout time.Duration) *Client {
	return &Client{
		query: q,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock: clockwork.NewRealClock(),
	}
}

// Fetch performs a single request. Transport failures, non-200 responses and
// payloads that are not a FeatureCollection are returned as errors; problems
// with individual features are reported per FeatureResult.
func (c *Client) Fetch(ctx context.Context) (*Collection, error) {
	u, err := c.query.URL(c.clock.Now())
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	slog.Debug("fetching feed", "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	// FDSN services answer 204 when the query matches nothing.
	if resp.StatusCode == http.StatusNoContent {
		return &Collection{URL: u, Features: []FeatureResult{}}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d - status: %s", ErrUnexpectedStatus, resp.StatusCode, resp.Status)
	}

	var data usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: error decoding resp.Body: %w", ErrMalformedPayload, err)
	}
	if data.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: expected FeatureCollection, got %q", ErrMalformedPayload, data.Type)
	}

	results := make([]FeatureResult, 0, len(data.Features))
	for i, raw := range data.Features {
		results = append(results, parseFeature(i, raw))
	}

	return &Collection{URL: u, Features: results}, nil
}

func parseFeature(index int, raw json.RawMessage) FeatureResult {
	res := FeatureResult{Index: index}

	var f usgsFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		res.Err = fmt.Errorf("%w: feature %d: %w", ErrMalformedFeature, index, err)
		return res
	}

	switch {
	case f.Geometry == nil:
		res.Err = fmt.Errorf("%w: feature %d (%s): missing geometry", ErrMalformedFeature, index, f.ID)
	case len(f.Geometry.Coordinates) < 3:
		res.Err = fmt.Errorf("%w: feature %d (%s): expected [lon, lat, depth], got %d coordinates",
			ErrMalformedFeature, index, f.ID, len(f.Geometry.Coordinates))
	case slices.Contains(f.Geometry.Coordinates[:3], nil):
		res.Err = fmt.Errorf("%w: feature %d (%s): null coordinate in [lon, lat, depth]", ErrMalformedFeature, index, f.ID)
	case f.Properties.Mag == nil:
		res.Err = fmt.Errorf("%w: feature %d (%s): missing magnitude", ErrMalformedFeature, index, f.ID)
	}
	if res.Err != nil {
		return res
	}

	res.Quake = models.Earthquake{
		ID:        f.ID,
		Place:     f.Properties.Place,
		Time:      time.UnixMilli(f.Properties.Time),
		Magnitude: *f.Properties.Mag,
		Longitude: *f.Geometry.Coordinates[0],
		Latitude:  *f.Geometry.Coordinates[1],
		Depth:     *f.Geometry.Coordinates[2],
	}
	return res
}
