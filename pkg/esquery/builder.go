// Package esquery builds Elasticsearch query DSL bodies for the three log
// read modes. Everything here is declarative: the builder returns plain maps
// that encode straight to JSON.
package esquery

const (
	// MinimumShouldMatch is the share of query terms a message must contain.
	MinimumShouldMatch = "80%"

	SearchLimit  = 100
	RecentLimit  = 75
	HistoryLimit = 100

	// TimeField is the primary sort key; MessageField is matched by full-text queries.
	TimeField    = "time"
	MessageField = "message"
	// CursorField is the keyword-mapped record id written at ingestion. It
	// orders lexically and breaks ties between records sharing a timestamp.
	// The _id metadata field cannot serve here: it rejects range queries.
	CursorField = "id"
)

// Query is a request body for the _search endpoint.
type Query map[string]any

// QueryBuilder constructs search bodies.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type QueryBuilder struct{}

// Search matches content against the message field, newest first.
func (b QueryBuilder) Search(content string) Query {
	return Query{
		"query": b.match(content),
		"sort":  b.newestFirst(),
		"size":  SearchLimit,
	}
}

// Recent returns the newest records without any filter.
func (b QueryBuilder) Recent() Query {
	return Query{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  b.newestFirst(),
		"size":  RecentLimit,
	}
}

// History returns records whose id is strictly below before, optionally
// also matching content. Both conditions must hold.
func (b QueryBuilder) History(before, content string) Query {
	boolQuery := map[string]any{
		"filter": []any{
			map[string]any{
				"range": map[string]any{
					CursorField: map[string]any{"lt": before},
				},
			},
		},
	}
	if content != "" {
		boolQuery["must"] = []any{b.match(content)}
	}
	return Query{
		"query": map[string]any{"bool": boolQuery},
		"sort":  b.newestFirst(),
		"size":  HistoryLimit,
	}
}

func (b QueryBuilder) match(content string) map[string]any {
	return map[string]any{
		"match": map[string]any{
			MessageField: map[string]any{
				"query":                content,
				"minimum_should_match": MinimumShouldMatch,
			},
		},
	}
}

func (b QueryBuilder) newestFirst() []any {
	return []any{
		map[string]any{TimeField: map[string]any{"order": "desc"}},
		map[string]any{CursorField: map[string]any{"order": "desc"}},
	}
}
