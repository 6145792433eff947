package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
)

const (
	tmdbDefaultBaseURL = "https://api.themoviedb.org/3"
	tmdbPosterBaseURL  = "https://image.tmdb.org/t/p/w500"

	tmdbTimeout    = 30 * time.Second
	tmdbRateDelay  = 1 * time.Second
	tmdbMaxRetries = 3
	tmdbRetryDelay = 2 * time.Second
	tmdbUserAgent  = "movierank/1.0"

	searchCachePrefix  = "tmdb:search:"
	detailsCachePrefix = "tmdb:movie:"
	searchCacheTTL     = 4 * time.Hour
	detailsCacheTTL    = 24 * time.Hour

	maxResponseSize = 5 * 1024 * 1024 // 5MB
)

// TMDBClient looks up movie metadata on TMDB. Responses are cached in
// Redis read-through; a missing or unreachable Redis degrades to direct
// API calls and never fails a lookup.
type TMDBClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	logger      *logrus.Logger
	redis       *redis.Client
	rateLimiter chan struct{}
	lastRequest time.Time
}

type TMDBConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *logrus.Logger
	Redis   *redis.Client
}

func NewTMDBClient(cfg *TMDBConfig) *TMDBClient {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = tmdbDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = tmdbTimeout
	}
	return &TMDBClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger:      cfg.Logger,
		redis:       cfg.Redis,
		rateLimiter: make(chan struct{}, 1),
	}
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string, year int) (*models.TMDBSearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is not set")
	}

	c.logger.WithField("query", query).Info("Searching TMDB...")

	cacheKey := searchCachePrefix + query + ":" + strconv.Itoa(year)
	var cached models.TMDBSearchResponse
	if c.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	body, err := c.makeRequest(ctx, fmt.Sprintf("%s/search/movie?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var result models.TMDBSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB search response: %w", err)
	}

	c.cacheSet(ctx, cacheKey, result, searchCacheTTL)
	return &result, nil
}

func (c *TMDBClient) GetMovie(ctx context.Context, tmdbID int) (*models.TMDBMovieDetail, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is not set")
	}

	cacheKey := detailsCachePrefix + strconv.Itoa(tmdbID)
	var cached models.TMDBMovieDetail
	if c.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	body, err := c.makeRequest(ctx, fmt.Sprintf("%s/movie/%d?%s", c.baseURL, tmdbID, params.Encode()))
	if err != nil {
		return nil, err
	}

	var detail models.TMDBMovieDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB movie response: %w", err)
	}

	c.cacheSet(ctx, cacheKey, detail, detailsCacheTTL)
	return &detail, nil
}

// Match searches for title (and release year when known) and returns the
// first result, the same best-match rule the rest of the tooling uses.
func (c *TMDBClient) Match(ctx context.Context, title string, year int) (*models.TMDBResult, error) {
	result, err := c.SearchMovies(ctx, title, year)
	if err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("no matches found on TMDB for %q: %w", title, models.ErrNotFound)
	}
	return &result.Results[0], nil
}

// FormatImport shapes a TMDB record into a movie create payload. Nothing
// is persisted here; the caller decides whether to POST it.
func (c *TMDBClient) FormatImport(detail *models.TMDBMovieDetail, watchedYear int, addedBy string) models.MovieImport {
	imp := models.MovieImport{
		Title:       detail.Title,
		WatchedYear: watchedYear,
		AddedBy:     addedBy,
		TMDBID:      detail.ID,
	}
	if len(detail.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(detail.ReleaseDate[:4]); err == nil {
			imp.Year = y
		}
	}
	if detail.Overview != "" {
		overview := detail.Overview
		imp.Description = &overview
	}
	if detail.PosterPath != "" {
		poster := tmdbPosterBaseURL + detail.PosterPath
		imp.PosterURL = &poster
	}
	return imp
}

func (c *TMDBClient) cacheGet(ctx context.Context, key string, dest any) bool {
	if c.redis == nil {
		return false
	}
	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Failed to read from Redis")
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.WithError(err).Warn("Failed to unmarshal cached TMDB response")
		return false
	}
	c.logger.WithField("key", key).Debug("TMDB cache hit")
	return true
}

func (c *TMDBClient) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal TMDB response for caching")
		return
	}
	if err := c.redis.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to write TMDB response to cache")
	}
}

func (c *TMDBClient) makeRequest(ctx context.Context, requestURL string) ([]byte, error) {
	// One outbound request at a time; lastRequest is only touched while
	// the slot is held, which also makes the pacing hold under
	// concurrent callers.
	c.rateLimiter <- struct{}{}
	defer func() { <-c.rateLimiter }()

	var rErr error

	for attempt := 0; attempt < tmdbMaxRetries; attempt++ {
		c.enforceRateLimit()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", tmdbUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			rErr = fmt.Errorf("failed to make HTTP request: %w", err)
			c.retryLogger(attempt, err)
			c.waitForRetry(attempt)
			continue
		}

		c.lastRequest = time.Now()

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, fmt.Errorf("TMDB returned 404: %w", models.ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			rErr = fmt.Errorf("TMDB returned status code %d", resp.StatusCode)
			c.retryLogger(attempt, rErr)
			c.waitForRetry(attempt)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
		resp.Body.Close()
		if err != nil {
			rErr = fmt.Errorf("failed to read response body: %w", err)
			c.retryLogger(attempt, err)
			c.waitForRetry(attempt)
			continue
		}
		if len(body) > maxResponseSize {
			return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
		}

		c.logger.WithFields(logrus.Fields{
			"url":           req.URL.Path,
			"attempt":       attempt,
			"response_size": len(body),
		}).Debug("TMDB request successful")

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", tmdbMaxRetries, rErr)
}

func (c *TMDBClient) enforceRateLimit() {
	now := time.Now()
	if c.lastRequest.Add(tmdbRateDelay).After(now) {
		wait := c.lastRequest.Add(tmdbRateDelay).Sub(now)
		c.logger.WithField("sleep_time", wait).Debug("Rate limit: sleeping")
		time.Sleep(wait)
	}
}

func (c *TMDBClient) retryLogger(attempt int, err error) {
	c.logger.WithFields(logrus.Fields{
		"attempt": attempt + 1,
		"error":   err.Error(),
	}).Warn("TMDB request failed, retrying...")
}

func (c *TMDBClient) waitForRetry(attempt int) {
	if attempt < tmdbMaxRetries-1 {
		delay := time.Duration(attempt+1) * tmdbRetryDelay
		time.Sleep(delay)
	}
}
