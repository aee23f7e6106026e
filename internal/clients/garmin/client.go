// Package garmin fetches daily wellness records from Garmin Connect.
package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/healthtrends/internal/clientdata"
	"github.com/aristath/healthtrends/internal/modules/trends"
)

// ErrNotFound means the upstream has no record for the requested day.
var ErrNotFound = errors.New("garmin: no record for day")

// Config holds Garmin Connect client settings
type Config struct {
	BaseURL     string
	Token       string // OAuth2 bearer token
	DisplayName string // Profile display name used in user-scoped endpoints
	Concurrency int
	Timeout     time.Duration
}

// Client for the Garmin Connect API
type Client struct {
	baseURL     string
	token       string
	displayName string
	concurrency int
	client      *http.Client
	cacheRepo   *clientdata.Repository
	now         func() time.Time
	log         zerolog.Logger
}

// NewClient creates a new Garmin Connect client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		displayName: cfg.DisplayName,
		concurrency: cfg.Concurrency,
		client:      &http.Client{Timeout: cfg.Timeout},
		cacheRepo:   cacheRepo,
		now:         time.Now,
		log:         log.With().Str("client", "garmin").Logger(),
	}
}

// DailySummary fetches the activity summary for one day.
func (c *Client) DailySummary(ctx context.Context, day trends.CalendarDate) (*trends.DailySummary, error) {
	path := fmt.Sprintf("/usersummary-service/usersummary/daily/%s?calendarDate=%s",
		url.PathEscape(c.displayName), day)
	return fetchRecord[trends.DailySummary](ctx, c, clientdata.TableDailySummary, path, day,
		func(r *trends.DailySummary) bool { return r.CalendarDate != "" })
}

// Sleep fetches the nightly sleep record for one day.
func (c *Client) Sleep(ctx context.Context, day trends.CalendarDate) (*trends.SleepRecord, error) {
	path := fmt.Sprintf("/wellness-service/wellness/dailySleepData/%s?date=%s&nonSleepBufferMinutes=60",
		url.PathEscape(c.displayName), day)
	return fetchRecord[trends.SleepRecord](ctx, c, clientdata.TableSleep, path, day,
		func(r *trends.SleepRecord) bool { return r.DailySleep != nil && r.DailySleep.CalendarDate != "" })
}

// HRV fetches the nightly HRV summary for one day.
func (c *Client) HRV(ctx context.Context, day trends.CalendarDate) (*trends.HRVRecord, error) {
	path := fmt.Sprintf("/hrv-service/hrv/%s", day)
	return fetchRecord[trends.HRVRecord](ctx, c, clientdata.TableHRV, path, day,
		func(r *trends.HRVRecord) bool { return r.Summary != nil && r.Summary.CalendarDate != "" })
}

// fetchRecord is cache-first: a fresh cache entry (including a cached absence) skips the
// request, and a failed request falls back to a stale entry when one exists.
func fetchRecord[T any](
	ctx context.Context,
	c *Client,
	table, path string,
	day trends.CalendarDate,
	present func(*T) bool,
) (*T, error) {
	key := day.String()

	if c.cacheRepo != nil {
		var cached *T
		found, err := c.cacheRepo.GetIfFresh(table, key, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("table", table).Str("date", key).Msg("Cache read failed")
		} else if found {
			if cached == nil {
				return nil, ErrNotFound
			}
			return cached, nil
		}
	}

	rec, err := getJSON(ctx, c, path, present)
	if errors.Is(err, ErrNotFound) {
		c.store(table, key, (*T)(nil))
		return nil, ErrNotFound
	}
	if err != nil {
		if ctx.Err() == nil {
			if stale, ok := staleFromCache[T](c, table, key); ok {
				c.log.Warn().Err(err).Str("table", table).Str("date", key).
					Msg("API failed, using stale cached record")
				if stale == nil {
					return nil, ErrNotFound
				}
				return stale, nil
			}
		}
		return nil, err
	}

	c.store(table, key, rec)
	return rec, nil
}

func staleFromCache[T any](c *Client, table, key string) (*T, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	var stale *T
	found, err := c.cacheRepo.Get(table, key, &stale)
	if err != nil || !found {
		return nil, false
	}
	return stale, true
}

func (c *Client) store(table, key string, rec interface{}) {
	if c.cacheRepo == nil {
		return
	}
	ttl := clientdata.TTLForDay(key, trends.DateOf(c.now()).String())
	if err := c.cacheRepo.Store(table, key, rec, ttl); err != nil {
		c.log.Warn().Err(err).Str("table", table).Str("date", key).Msg("Failed to cache record")
	}
}

// getJSON performs one authenticated GET and decodes the JSON body into a new T.
// 204, 404 and bodies that fail present() are reported as ErrNotFound.
func getJSON[T any](ctx context.Context, c *Client, path string, present func(*T) bool) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "healthtrends/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request %s returned status %d: %s", path, resp.StatusCode, body)
	}

	var rec T
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	if !present(&rec) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// FetchStats counts the outcome of one FetchSources call.
type FetchStats struct {
	Requests int
	Found    int
	Missing  int
	Failed   int
}

// FetchSources fetches every source kind for the last `days` calendar days, today included.
// Requests run concurrently up to the configured limit. Individual failures are logged and
// skipped; the call fails only when every request failed or ctx was cancelled.
func (c *Client) FetchSources(ctx context.Context, days int) (trends.Sources, error) {
	if days <= 0 {
		return trends.Sources{}, fmt.Errorf("days must be positive, got %d", days)
	}

	today := trends.DateOf(c.now())
	summaries := make([]*trends.DailySummary, days)
	sleep := make([]*trends.SleepRecord, days)
	hrv := make([]*trends.HRVRecord, days)

	var (
		mu       sync.Mutex
		stats    = FetchStats{Requests: days * len(trends.AllSources)}
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			stats.Found++
		case errors.Is(err, ErrNotFound):
			stats.Missing++
		default:
			stats.Failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := 0; i < days; i++ {
		day := today.AddDays(-i)

		g.Go(func() error {
			rec, err := c.DailySummary(gctx, day)
			summaries[i] = rec
			record(err)
			return gctx.Err()
		})
		g.Go(func() error {
			rec, err := c.Sleep(gctx, day)
			sleep[i] = rec
			record(err)
			return gctx.Err()
		})
		g.Go(func() error {
			rec, err := c.HRV(gctx, day)
			hrv[i] = rec
			record(err)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return trends.Sources{}, fmt.Errorf("fetch cancelled: %w", err)
	}

	c.log.Info().
		Int("days", days).
		Int("requests", stats.Requests).
		Int("found", stats.Found).
		Int("missing", stats.Missing).
		Int("failed", stats.Failed).
		Msg("Fetched Garmin records")

	if stats.Failed == stats.Requests {
		return trends.Sources{}, fmt.Errorf("all %d Garmin requests failed: %w", stats.Requests, firstErr)
	}
	if stats.Failed > 0 {
		c.log.Warn().Err(firstErr).Int("failed", stats.Failed).Msg("Some Garmin requests failed")
	}

	var src trends.Sources
	for i := 0; i < days; i++ {
		if summaries[i] != nil {
			src.Summaries = append(src.Summaries, *summaries[i])
		}
		if sleep[i] != nil {
			src.Sleep = append(src.Sleep, *sleep[i])
		}
		if hrv[i] != nil {
			src.HRV = append(src.HRV, *hrv[i])
		}
	}
	return src, nil
}
