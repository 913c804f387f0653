package ingestion

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mr1hm/go-quake-map/internal/config"
	"github.com/paulmach/orb"
)

// Query is an FDSN event query restricted to a bounding box and time range.
type Query struct {
	Endpoint string
	Bound    orb.Bound
	Start    time.Time
	End      time.Time
	Window   time.Duration // when > 0, the range is [now-Window, now]
}

func QueryFromConfig(cfg config.FeedConfig) Query {
	return Query{
		Endpoint: cfg.URL,
		Bound:    cfg.Bound(),
		Start:    cfg.Start,
		End:      cfg.End,
		Window:   cfg.Window,
	}
}

// URL builds the request URL. now is only consulted for windowed queries.
func (q Query) URL(now time.Time) (string, error) {
	u, err := url.Parse(q.Endpoint)
	if err != nil {
		return "", fmt.Errorf("error parsing feed endpoint: %w", err)
	}

	var start, end string
	if q.Window > 0 {
		now = now.UTC()
		start = now.Add(-q.Window).Format(time.RFC3339)
		end = now.Format(time.RFC3339)
	} else {
		start = q.Start.Format(time.DateOnly)
		end = q.End.Format(time.DateOnly)
	}

	params := u.Query()
	params.Set("format", "geojson")
	params.Set("starttime", start)
	params.Set("endtime", end)
	params.Set("maxlongitude", formatCoord(q.Bound.Right()))
	params.Set("minlongitude", formatCoord(q.Bound.Left()))
	params.Set("maxlatitude", formatCoord(q.Bound.Top()))
	params.Set("minlatitude", formatCoord(q.Bound.Bottom()))
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
