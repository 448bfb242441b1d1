// Package tmdb TMDB v3 API 客户端，带限流、熔断和结果缓存
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/metrics"
	"github.com/user/moovie/internal/utils"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("tmdb: token not configured")
	ErrUnauthorized  = errors.New("tmdb: unauthorized")
	ErrNotFound      = errors.New("tmdb: not found")
	ErrRateLimited   = errors.New("tmdb: rate limited")
)

// StatusError 非 2xx 且未归入哨兵错误的响应
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s returned status %d", e.Endpoint, e.Status)
}

const (
	breakerName = "tmdb-api"
	genreTTL    = 24 * time.Hour
)

type Client struct {
	baseURL  string
	imageURL string
	token    string
	language string

	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]

	pages  *utils.TTLCache[string, *MoviePage]
	genres *cache.Cache
}

func NewClient(cfg config.TMDBConfig) *Client {
	burst := int(cfg.RPS)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		imageURL: cfg.ImageBaseURL,
		token:    cfg.Token,
		language: cfg.Language,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), burst),
		cb:       newBreaker(),
		pages:    utils.NewTTLCache[string, *MoviePage](cfg.CacheSize, cfg.CacheTTL),
		genres:   cache.New(genreTTL, time.Hour),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		// 404 和 401 是调用方的问题，不算上游故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Configured 是否配置了访问令牌
func (c *Client) Configured() bool {
	return c.token != ""
}

// ImageURL 拼接图片地址，path 为空返回空串
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + "/" + size + path
}

// DiscoverByGenre 按类型发现电影，按热度降序
func (c *Client) DiscoverByGenre(ctx context.Context, genreID, page int) (*MoviePage, error) {
	params := url.Values{}
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.moviePage(ctx, "discover", "/discover/movie", params)
}

// Popular 热门电影
func (c *Client) Popular(ctx context.Context, page int) (*MoviePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.moviePage(ctx, "popular", "/movie/popular", params)
}

// SearchMovies 按标题搜索
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.moviePage(ctx, "search", "/search/movie", params)
}

// MovieDetails 电影详情，附带演职员
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits")
	var details MovieDetails
	if err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Genres 电影类型列表，按语言缓存一天
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	key := "genres:" + c.language
	if v, ok := c.genres.Get(key); ok {
		metrics.RecordTMDBRequest("genres", "cache_hit", 0)
		return v.([]Genre), nil
	}
	var list genreList
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &list); err != nil {
		return nil, err
	}
	c.genres.Set(key, list.Genres, cache.DefaultExpiration)
	return list.Genres, nil
}

func (c *Client) moviePage(ctx context.Context, endpoint, path string, params url.Values) (*MoviePage, error) {
	key := path + "?" + params.Encode()
	if page, ok := c.pages.Get(key); ok {
		metrics.RecordTMDBRequest(endpoint, "cache_hit", 0)
		return page, nil
	}
	var page MoviePage
	if err := c.get(ctx, endpoint, path, params, &page); err != nil {
		return nil, err
	}
	c.pages.Set(key, &page)
	return &page, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	reqURL := c.baseURL + path + "?" + params.Encode()

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, reqURL)
	})
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.RecordTMDBRequest(endpoint, outcome, elapsed)
		logging.Ctx(ctx).Debug().Err(err).Str("endpoint", endpoint).Str("path", path).Msg("tmdb request failed")
		return err
	}
	metrics.RecordTMDBRequest(endpoint, "ok", elapsed)

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("tmdb: read %s: %w", endpoint, err)
	}
	return body, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	// TMDB 限制最多 500 页
	if page > 500 {
		return 500
	}
	return page
}
