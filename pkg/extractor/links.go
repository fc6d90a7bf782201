package extractor

import (
	"net/url"

	"trends-go/pkg/api"
)

const (
	trendsExploreURL = "https://trends.google.com/trends/explore"
	googleSearchURL  = "https://www.google.com/search"

	defaultTrendsDate = "now 7-d"
)

var trendsDateCodes = map[string]string{
	"past_hour":    "now 1-H",
	"past_4_hours": "now 4-H",
	"past_day":     "now 1-d",
	"past_7_days":  "now 7-d",
	"past_30_days": "today 1-m",
	"past_90_days": "today 3-m",
	"past_year":    "today 12-m",
	"past_5_years": "today 5-y",
}

// LinkBuilder derives deterministic links for extracted queries
type LinkBuilder struct {
	Geo      string
	Language string
}

// NewLinkBuilder returns a builder defaulting to US / en
func NewLinkBuilder(geo, language string) LinkBuilder {
	if geo == "" {
		geo = "US"
	}
	if language == "" {
		language = "en"
	}
	return LinkBuilder{Geo: geo, Language: language}
}

// TrendsDate maps a named time range to the explore page's date code.
// Explicit "YYYY-MM-DD YYYY-MM-DD" ranges pass through unchanged.
func TrendsDate(timeRange string) string {
	if code, ok := trendsDateCodes[timeRange]; ok {
		return code
	}
	if _, _, ok := api.ParseDateRange(timeRange); ok {
		return timeRange
	}
	return defaultTrendsDate
}

// TrendsLink builds the explore page URL for a query
func (b LinkBuilder) TrendsLink(query, timeRange string) string {
	params := url.Values{}
	params.Set("date", TrendsDate(timeRange))
	params.Set("geo", b.Geo)
	params.Set("hl", b.Language)
	params.Set("q", query)
	return trendsExploreURL + "?" + params.Encode()
}

// SearchLink builds a plain web search URL for a query
func SearchLink(query string) string {
	params := url.Values{}
	params.Set("q", query)
	return googleSearchURL + "?" + params.Encode()
}
