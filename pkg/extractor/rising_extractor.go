package extractor

import (
	"encoding/json"
	"strings"

	"trends-go/pkg/api"
	"trends-go/pkg/logger"
)

type resultBlock struct {
	Items []itemBlock `json:"items"`
}

type itemBlock struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type queriesList struct {
	Rising []rawQuery `json:"rising"`
}

type rawQuery struct {
	Query string          `json:"query"`
	Value json.RawMessage `json:"value"`
}

// RisingExtractor reads the rising category of the first queries list block
type RisingExtractor struct {
	maxEntries int
	timeRange  string
	links      LinkBuilder
	log        *logger.Logger
}

// NewRisingExtractor creates an extractor; maxEntries <= 0 uses DefaultMaxEntries
func NewRisingExtractor(maxEntries int, timeRange string, links LinkBuilder) *RisingExtractor {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &RisingExtractor{
		maxEntries: maxEntries,
		timeRange:  timeRange,
		links:      links,
		log:        logger.GetLogger().WithField("component", "rising_extractor"),
	}
}

// Extract returns the rising entries of a fetched task. A missing, empty or
// malformed payload yields an empty slice.
func (e *RisingExtractor) Extract(payload *api.TaskPayload) []RisingQueryEntry {
	if payload == nil || len(payload.Result) == 0 {
		return []RisingQueryEntry{}
	}
	return e.ExtractRaw(payload.Result)
}

// ExtractRaw works on the task's raw result array
func (e *RisingExtractor) ExtractRaw(result json.RawMessage) []RisingQueryEntry {
	entries := []RisingQueryEntry{}

	var blocks []resultBlock
	if err := json.Unmarshal(result, &blocks); err != nil {
		e.log.WithError(err).Debug("Unreadable task result")
		return entries
	}

	list, ok := firstQueriesList(blocks)
	if !ok {
		return entries
	}

	for i, q := range list.Rising {
		if i >= e.maxEntries {
			break
		}
		text := strings.TrimSpace(q.Query)
		if text == "" {
			continue
		}
		growth := ParseGrowth(q.Value)
		entries = append(entries, RisingQueryEntry{
			Query:   q.Query,
			Growth:  growth,
			Display: growth.Display(),
			Rank:    i + 1,
			Link:    e.links.TrendsLink(q.Query, e.timeRange),
		})
	}
	return entries
}

func firstQueriesList(blocks []resultBlock) (queriesList, bool) {
	for _, block := range blocks {
		for _, item := range block.Items {
			if item.Type != api.QueriesListItemType {
				continue
			}
			var list queriesList
			if err := json.Unmarshal(item.Data, &list); err != nil {
				return queriesList{}, false
			}
			return list, true
		}
	}
	return queriesList{}, false
}
