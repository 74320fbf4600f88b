// Package ingest feeds the bronze layer: DPE pages from the ADEME data-fair
// API and raw DVF exports from the local filesystem, both stored verbatim.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

const retryInitialDelay = 500 * time.Millisecond

// page is the shape of one data-fair response.
type page struct {
	Results []json.RawMessage `json:"results"`
	Next    string            `json:"next"`
}

// DPEStats summarizes one ingestion run.
type DPEStats struct {
	Records     int
	Batches     int
	FailedDepts []string
}

// DPEIngester paginates the DPE API per department and stores each page as
// one bronze JSON object. Requests are rate limited below the API cap and
// transient failures (429, 5xx, network) are retried with exponential
// backoff before the page is abandoned.
type DPEIngester struct {
	store   storage.ObjectStore
	client  *http.Client
	limiter *rate.Limiter
	api     config.APIConfig
	scope   config.ScopeConfig
	bucket  string
	logger  *slog.Logger

	now func() time.Time
}

// NewDPEIngester builds an ingester from the pipeline configuration.
func NewDPEIngester(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *DPEIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &DPEIngester{
		store:   store,
		client:  &http.Client{Timeout: cfg.API.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), 1),
		api:     cfg.API,
		scope:   cfg.Scope,
		bucket:  cfg.Buckets.Bronze,
		logger:  logger,
		now:     time.Now,
	}
}

// IngestAll ingests every configured department. A department failure is
// logged and does not affect the others.
func (i *DPEIngester) IngestAll(ctx context.Context) (DPEStats, error) {
	if err := i.store.EnsureBucket(ctx, i.bucket); err != nil {
		return DPEStats{}, err
	}

	var stats DPEStats
	for _, dept := range i.scope.Departements {
		records, batches, err := i.IngestDepartment(ctx, dept)
		stats.Records += records
		stats.Batches += batches
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.FailedDepts = append(stats.FailedDepts, dept)
			i.logger.Warn("department ingestion abandoned",
				slog.String("departement", dept),
				slog.String("error", err.Error()))
		}
	}

	i.logger.Info("DPE ingestion finished",
		slog.Int("records", stats.Records),
		slog.Int("batches", stats.Batches),
		slog.Int("failed_departments", len(stats.FailedDepts)))
	return stats, nil
}

// IngestDepartment pages through one department until the API stops
// returning a continuation token. A failed page write aborts the department.
func (i *DPEIngester) IngestDepartment(ctx context.Context, dept string) (records, batches int, err error) {
	logger := i.logger.With(slog.String("departement", dept))
	logger.Info("ingesting department")

	pageURL := i.firstPageURL(dept)
	for batch := 1; pageURL != ""; batch++ {
		p, err := i.fetchPage(ctx, pageURL)
		if err != nil {
			return records, batches, fmt.Errorf("fetch page %d: %w", batch, err)
		}
		if len(p.Results) == 0 {
			logger.Info("empty page, stopping", slog.Int("batch", batch))
			break
		}

		data, err := json.Marshal(p.Results)
		if err != nil {
			return records, batches, fmt.Errorf("encode page %d: %w", batch, err)
		}
		key := lake.BronzeDPEKey(dept, batch, i.now())
		if err := i.store.Put(ctx, i.bucket, key, data, "application/json"); err != nil {
			return records, batches, fmt.Errorf("store page %d: %w", batch, err)
		}

		records += len(p.Results)
		batches++
		logger.Info("page stored",
			slog.Int("batch", batch),
			slog.Int("records", len(p.Results)),
			slog.String("key", key))

		pageURL = p.Next
	}

	logger.Info("department done", slog.Int("records", records), slog.Int("batches", batches))
	return records, batches, nil
}

// firstPageURL builds the query for a department's first page; subsequent
// pages follow the complete next link of each response, which carries the
// opaque continuation token.
func (i *DPEIngester) firstPageURL(dept string) string {
	qs := fmt.Sprintf("%s:%q AND %s:[%s TO %s]",
		domain.DPEFieldDepartement, dept,
		domain.DPEFieldDate, i.scope.DateStart, i.scope.DateEnd)

	q := url.Values{}
	q.Set("select", strings.Join(domain.DPESelectFields, ","))
	q.Set("qs", qs)
	q.Set("size", fmt.Sprintf("%d", i.api.PageSize))
	return fmt.Sprintf("%s/%s/lines?%s", i.api.BaseURL, i.api.Dataset, q.Encode())
}

// fetchPage retrieves one page, retrying transient failures with
// exponential backoff up to the configured attempt limit.
func (i *DPEIngester) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	var lastErr error
	delay := retryInitialDelay

	for attempt := 1; attempt <= i.api.MaxRetries; attempt++ {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		p, retryable, err := i.doRequest(ctx, pageURL)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		i.logger.Warn("transient API error, backing off",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func (i *DPEIngester) doRequest(ctx context.Context, pageURL string) (p *page, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Decoded below.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("API returned %s", resp.Status)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("API returned %s", resp.Status)
	}

	var result page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decode API response: %w", err)
	}
	return &result, false, nil
}
