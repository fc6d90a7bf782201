package api

import (
	"strings"
	"time"
)

// QueriesListItemType is the only item type requested and parsed
const QueriesListItemType = "google_trends_queries_list"

// RequestOptions holds the per-run parameters shared by every task
type RequestOptions struct {
	LocationName string
	LanguageCode string
	TimeRange    string
}

// TaskRequest is one explore task object in a task_post body
type TaskRequest struct {
	Keywords     []string `json:"keywords"`
	LocationName string   `json:"location_name,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
	Type         string   `json:"type"`
	TimeRange    string   `json:"time_range,omitempty"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
	ItemTypes    []string `json:"item_types"`
	Tag          string   `json:"tag"`
}

// NewExploreRequest builds the task object for a single keyword, tagged with the keyword
func NewExploreRequest(keyword string, opts RequestOptions) TaskRequest {
	req := TaskRequest{
		Keywords:     []string{keyword},
		LocationName: opts.LocationName,
		LanguageCode: opts.LanguageCode,
		Type:         "web",
		ItemTypes:    []string{QueriesListItemType},
		Tag:          keyword,
	}
	if from, to, ok := ParseDateRange(opts.TimeRange); ok {
		req.DateFrom = from
		req.DateTo = to
	} else if opts.TimeRange != "" {
		req.TimeRange = opts.TimeRange
	}
	return req
}

// ParseDateRange splits an explicit "YYYY-MM-DD YYYY-MM-DD" range
func ParseDateRange(timeRange string) (from, to string, ok bool) {
	parts := strings.Fields(timeRange)
	if len(parts) != 2 {
		return "", "", false
	}
	start, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return "", "", false
	}
	end, err := time.Parse("2006-01-02", parts[1])
	if err != nil || end.Before(start) {
		return "", "", false
	}
	return parts[0], parts[1], true
}
