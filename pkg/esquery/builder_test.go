package esquery

import (
	"encoding/json"
	"testing"
)

func encode(t *testing.T, q Query) string {
	t.Helper()
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestSearch(t *testing.T) {
	b := QueryBuilder{}

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "single term",
			content:  "timeout",
			expected: `{"query":{"match":{"message":{"minimum_should_match":"80%","query":"timeout"}}},"size":100,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`,
		},
		{
			name:     "multiple terms keep the phrase intact",
			content:  "connection refused to database",
			expected: `{"query":{"match":{"message":{"minimum_should_match":"80%","query":"connection refused to database"}}},"size":100,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`,
		},
		{
			name:     "special characters are data, not syntax",
			content:  `"quoted" AND *`,
			expected: `{"query":{"match":{"message":{"minimum_should_match":"80%","query":"\"quoted\" AND *"}}},"size":100,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encode(t, b.Search(tt.content))
			if got != tt.expected {
				t.Errorf("\nexpected: %s\ngot:      %s", tt.expected, got)
			}
		})
	}
}

func TestRecent(t *testing.T) {
	got := encode(t, QueryBuilder{}.Recent())
	expected := `{"query":{"match_all":{}},"size":75,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`
	if got != expected {
		t.Errorf("\nexpected: %s\ngot:      %s", expected, got)
	}
}

func TestHistory(t *testing.T) {
	b := QueryBuilder{}

	tests := []struct {
		name     string
		before   string
		content  string
		expected string
	}{
		{
			name:     "range only",
			before:   "01HQ3Z",
			expected: `{"query":{"bool":{"filter":[{"range":{"id":{"lt":"01HQ3Z"}}}]}},"size":100,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`,
		},
		{
			name:     "range and text match",
			before:   "01HQ3Z",
			content:  "payment failed",
			expected: `{"query":{"bool":{"filter":[{"range":{"id":{"lt":"01HQ3Z"}}}],"must":[{"match":{"message":{"minimum_should_match":"80%","query":"payment failed"}}}]}},"size":100,"sort":[{"time":{"order":"desc"}},{"id":{"order":"desc"}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encode(t, b.History(tt.before, tt.content))
			if got != tt.expected {
				t.Errorf("\nexpected: %s\ngot:      %s", tt.expected, got)
			}
		})
	}
}

func TestHistory_RangeIsExclusive(t *testing.T) {
	q := QueryBuilder{}.History("42", "")
	filter := q["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	rng := filter[0].(map[string]any)["range"].(map[string]any)[CursorField].(map[string]any)

	if _, ok := rng["lte"]; ok {
		t.Fatal("history range must not include the cursor itself")
	}
	if rng["lt"] != "42" {
		t.Errorf("expected lt=42, got %v", rng["lt"])
	}
}

func TestCursorFieldIsNotMetadata(t *testing.T) {
	// Underscore-prefixed metadata fields such as _id do not support range queries.
	if CursorField == "" || CursorField[0] == '_' {
		t.Fatalf("cursor must be a regular mapped field, got %q", CursorField)
	}
}

func TestQueriesDoNotShareState(t *testing.T) {
	b := QueryBuilder{}
	first := b.Search("a")
	second := b.Search("b")
	if encode(t, first) == encode(t, second) {
		t.Fatal("expected independent query bodies")
	}
}
