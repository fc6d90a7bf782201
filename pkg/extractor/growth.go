package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BreakoutMarker is reported by the service for growth above 5000%
const BreakoutMarker = "BREAKOUT"

// Growth is either a finite percentage or the breakout marker
type Growth struct {
	Percent  float64
	Breakout bool
	valid    bool
}

// PercentGrowth returns a numeric growth value
func PercentGrowth(p float64) Growth {
	return Growth{Percent: p, valid: true}
}

// BreakoutGrowth returns the breakout marker
func BreakoutGrowth() Growth {
	return Growth{Breakout: true, valid: true}
}

// ParseGrowth reads a raw value that may be a number, a numeric string or "BREAKOUT".
// Anything else yields an invalid growth displayed as "0%".
func ParseGrowth(raw json.RawMessage) Growth {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Growth{}
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return PercentGrowth(num)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return Growth{}
	}
	return parseGrowthText(str)
}

func parseGrowthText(s string) Growth {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, BreakoutMarker) {
		return BreakoutGrowth()
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "+"), "%")
	s = strings.ReplaceAll(s, ",", "")
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return Growth{}
	}
	return PercentGrowth(num)
}

// Valid reports whether the source value was understood
func (g Growth) Valid() bool {
	return g.valid
}

// Display renders "BREAKOUT", "+38%" or "0%"
func (g Growth) Display() string {
	switch {
	case g.Breakout:
		return BreakoutMarker
	case !g.valid:
		return "0%"
	default:
		return fmt.Sprintf("%+.0f%%", math.Round(g.Percent))
	}
}

// MarshalJSON writes the percentage as a number, or the breakout marker as a string
func (g Growth) MarshalJSON() ([]byte, error) {
	if g.Breakout {
		return json.Marshal(BreakoutMarker)
	}
	return json.Marshal(g.Percent)
}

// UnmarshalJSON accepts everything ParseGrowth does
func (g *Growth) UnmarshalJSON(data []byte) error {
	*g = ParseGrowth(data)
	return nil
}
