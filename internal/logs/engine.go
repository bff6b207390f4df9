// Package logs answers the three read modes over an application's index:
// full-text search, most recent records, and cursor-paged history.
package logs

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/metrics"
	"github.com/kiranshivaraju/logtrail/internal/search"
	"github.com/kiranshivaraju/logtrail/pkg/esquery"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// Query modes, used as the metrics label.
const (
	ModeSearch  = "search"
	ModeRecent  = "recent"
	ModeHistory = "history"
)

// Engine runs queries against the index of an already resolved application.
// Callers must pass the application returned by the access resolver.
type Engine struct {
	search  search.Client
	builder esquery.QueryBuilder
}

// NewEngine creates an Engine.
func NewEngine(sc search.Client) *Engine {
	return &Engine{search: sc}
}

// Search returns up to esquery.SearchLimit records whose message matches content.
func (e *Engine) Search(ctx context.Context, app *models.Application, content string) ([]models.LogRecord, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.MissingParameter("content")
	}
	return e.run(ctx, app, ModeSearch, e.builder.Search(content))
}

// Recent returns the esquery.RecentLimit newest records.
func (e *Engine) Recent(ctx context.Context, app *models.Application) ([]models.LogRecord, error) {
	return e.run(ctx, app, ModeRecent, e.builder.Recent())
}

// History returns up to esquery.HistoryLimit records with id strictly below
// before, optionally restricted to messages matching content. Page backward
// by passing the smallest id of the previous page.
func (e *Engine) History(ctx context.Context, app *models.Application, before, content string) ([]models.LogRecord, error) {
	before = strings.TrimSpace(before)
	if before == "" {
		return nil, apperr.MissingParameter("before")
	}
	return e.run(ctx, app, ModeHistory, e.builder.History(before, strings.TrimSpace(content)))
}

func (e *Engine) run(ctx context.Context, app *models.Application, mode string, q esquery.Query) ([]models.LogRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery(mode, time.Since(start)) }()

	index := search.IndexName(app.ID)

	// Provisioning at creation is best effort, so every read reconciles first.
	existed, err := e.search.EnsureIndex(ctx, index)
	if err != nil {
		slog.Error("ensure index failed", "application_id", app.ID, "index", index, "error", err)
		return nil, apperr.Unavailable("log storage is unavailable", err)
	}
	if !existed {
		return []models.LogRecord{}, nil
	}

	records, err := e.search.Search(ctx, index, q)
	if err != nil {
		slog.Error("log query failed",
			"application_id", app.ID,
			"mode", mode,
			"error", err,
		)
		return nil, apperr.Unavailable("log query failed", err)
	}
	if records == nil {
		records = []models.LogRecord{}
	}
	return records, nil
}
