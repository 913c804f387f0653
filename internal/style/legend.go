package style

import "strconv"

type DepthEntry struct {
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

type MagnitudeEntry struct {
	Label  string  `json:"label"`
	Radius float64 `json:"radius"`
}

// Legend describes the depth and magnitude keys drawn next to the map.
type Legend struct {
	Position   string           `json:"position"`
	Depths     []DepthEntry     `json:"depths"`
	Magnitudes []MagnitudeEntry `json:"magnitudes"`
}

// NewLegend builds the legend from the same ladder and radius function used
// for markers. Each depth swatch is sampled just above its lower bound.
func NewLegend(position string) Legend {
	l := Legend{
		Position:   position,
		Depths:     make([]DepthEntry, 0, len(DepthBuckets)),
		Magnitudes: make([]MagnitudeEntry, 0, len(MagnitudeSteps)),
	}

	for i, b := range DepthBuckets {
		var next *float64
		if i+1 < len(DepthBuckets) {
			next = &DepthBuckets[i+1].Min
		}
		sample := ForDepth(b.Min + 1)
		l.Depths = append(l.Depths, DepthEntry{
			Label:   rangeLabel(b.Min, next),
			Color:   sample.Color,
			Opacity: sample.Opacity,
		})
	}

	for i, m := range MagnitudeSteps {
		var next *float64
		if i+1 < len(MagnitudeSteps) {
			next = &MagnitudeSteps[i+1]
		}
		l.Magnitudes = append(l.Magnitudes, MagnitudeEntry{
			Label:  rangeLabel(m, next),
			Radius: Radius(m),
		})
	}

	return l
}

func rangeLabel(from float64, to *float64) string {
	if to == nil {
		return formatNumber(from) + "+"
	}
	return formatNumber(from) + "–" + formatNumber(*to)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
