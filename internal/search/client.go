package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/kiranshivaraju/logtrail/internal/config"
	"github.com/kiranshivaraju/logtrail/pkg/esquery"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// Sentinel errors for search backend failures.
var (
	ErrUnavailable = errors.New("search backend unavailable")
	ErrQuery       = errors.New("search query error")
	ErrTimeout     = errors.New("search query timeout")
)

const (
	errIndexNotFound      = "index_not_found_exception"
	errIndexAlreadyExists = "resource_already_exists_exception"
)

// Client is the interface for the per-tenant log index backend.
type Client interface {
	// EnsureIndex creates the index if it does not exist yet. It reports
	// whether the index was already there. Safe to call concurrently and
	// repeatedly.
	EnsureIndex(ctx context.Context, name string) (existed bool, err error)
	// Search runs q against index. A missing index yields an empty result.
	Search(ctx context.Context, index string, q esquery.Query) ([]models.LogRecord, error)
	Ping(ctx context.Context) error
}

// ESClient implements Client on top of go-elasticsearch.
type ESClient struct {
	es      *elasticsearch.Client
	timeout time.Duration

	// ensured remembers indices confirmed to exist so reads skip the round trip.
	ensured sync.Map
}

// NewESClient creates a new Elasticsearch-backed client.
func NewESClient(cfg config.ElasticsearchConfig) (*ESClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.URLs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ESClient{es: es, timeout: cfg.Timeout}, nil
}

func (c *ESClient) EnsureIndex(ctx context.Context, name string) (bool, error) {
	if _, ok := c.ensured.Load(name); ok {
		return true, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, classifyError(err)
	}
	drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		c.ensured.Store(name, struct{}{})
		return true, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("%w: index exists check returned status %d", ErrQuery, res.StatusCode)
	}

	res, err = c.es.Indices.Create(name,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(esutil.NewJSONReader(indexMapping)),
	)
	if err != nil {
		return false, classifyError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		// Another request provisioned it first.
		if errorType(res) == errIndexAlreadyExists {
			c.ensured.Store(name, struct{}{})
			return true, nil
		}
		return false, fmt.Errorf("%w: create index returned status %d", ErrQuery, res.StatusCode)
	}

	c.ensured.Store(name, struct{}{})
	return false, nil
}

func (c *ESClient) Search(ctx context.Context, index string, q esquery.Query) ([]models.LogRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(esutil.NewJSONReader(q)),
	)
	if err != nil {
		return nil, classifyError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound && errorType(res) == errIndexNotFound {
			c.ensured.Delete(index)
			return []models.LogRecord{}, nil
		}
		return nil, fmt.Errorf("%w: status %d", ErrQuery, res.StatusCode)
	}

	var sr searchResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	return parseHits(sr.Hits.Hits), nil
}

func (c *ESClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	drain(res)

	if res.IsError() {
		return fmt.Errorf("%w: elasticsearch not ready (status %d)", ErrUnavailable, res.StatusCode)
	}
	return nil
}

func (c *ESClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// parseHits copies each hit's source document. The stored id is the paging
// cursor and is kept as is; documents without one fall back to the hit's _id.
func parseHits(hits []searchHit) []models.LogRecord {
	records := make([]models.LogRecord, 0, len(hits))
	for _, h := range hits {
		rec := models.LogRecord{}
		for k, v := range h.Source {
			rec[k] = v
		}
		if _, ok := rec[esquery.CursorField]; !ok {
			rec[esquery.CursorField] = h.ID
		}
		records = append(records, rec)
	}
	return records
}

// errorType extracts error.type from an Elasticsearch error body.
func errorType(res *esapi.Response) string {
	var body errorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Error.Type
}

func drain(res *esapi.Response) {
	if res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

// --- Elasticsearch response types ---

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// Compile-time check that ESClient implements Client.
var _ Client = (*ESClient)(nil)
