package extractor

import "trends-go/pkg/api"

// DefaultMaxEntries bounds the rising queries kept per keyword
const DefaultMaxEntries = 10

// RisingQueryEntry is one extracted rising query of a seed keyword
type RisingQueryEntry struct {
	Query   string `json:"query"`
	Growth  Growth `json:"value"`
	Display string `json:"growth"`
	Rank    int    `json:"rank"`
	Link    string `json:"link"`
}

// ResultExtractor turns a fetched task into rising query entries
type ResultExtractor interface {
	Extract(payload *api.TaskPayload) []RisingQueryEntry
}
