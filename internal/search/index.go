package search

import (
	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/pkg/esquery"
)

// IndexPrefix is prepended to an application id to name its log index.
const IndexPrefix = "syslog-"

// IndexName returns the log index backing an application. This is the only
// place that knows how tenants map onto indices.
func IndexName(applicationID uuid.UUID) string {
	return IndexPrefix + applicationID.String()
}

// indexMapping is applied when an index is provisioned. Ingested documents may
// carry any other fields; these three are the ones queries depend on.
var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": fieldMapping,
	},
}

var fieldMapping = map[string]any{
	esquery.CursorField:  map[string]any{"type": "keyword"},
	esquery.TimeField:    map[string]any{"type": "date"},
	esquery.MessageField: map[string]any{"type": "text"},
}
