package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/moovie/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.TMDBConfig{
		Token:        "test-token",
		BaseURL:      srv.URL,
		ImageBaseURL: "https://image.example.org/t/p",
		Language:     "en-US",
		RPS:          1000,
		Timeout:      2 * time.Second,
		CacheSize:    16,
		CacheTTL:     time.Minute,
	})
}

func TestDiscoverByGenre(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/discover/movie" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("with_genres") != "28" || q.Get("sort_by") != "popularity.desc" || q.Get("page") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if q.Get("language") != "en-US" {
			t.Errorf("language = %q", q.Get("language"))
		}
		w.Write([]byte(`{"page":1,"total_pages":3,"total_results":41,"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30","vote_average":8.2,"vote_count":25000,"genre_ids":[28,878]}
		]}`))
	})

	ctx := context.Background()
	page, err := c.DiscoverByGenre(ctx, 28, 0)
	if err != nil {
		t.Fatalf("DiscoverByGenre: %v", err)
	}
	if page.TotalResults != 41 || len(page.Results) != 1 {
		t.Fatalf("page = %+v", page)
	}
	m := page.Results[0]
	if m.ID != 603 || m.Title != "The Matrix" || m.VoteCount != 25000 || len(m.GenreIDs) != 2 {
		t.Errorf("movie = %+v", m)
	}

	if _, err := c.DiscoverByGenre(ctx, 28, 1); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected cached second call, upstream hit %d times", calls.Load())
	}
}

func TestMovieDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" || r.URL.Query().Get("append_to_response") != "credits" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Write([]byte(`{"id":550,"imdb_id":"tt0137523","title":"Fight Club","runtime":139,
			"genres":[{"id":18,"name":"Drama"}],
			"credits":{"cast":[{"id":819,"name":"Edward Norton","character":"The Narrator","order":0}],
			"crew":[{"id":7467,"name":"David Fincher","job":"Director","department":"Directing"}]}}`))
	})

	d, err := c.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("MovieDetails: %v", err)
	}
	if d.IMDbID != "tt0137523" || d.Runtime != 139 || len(d.Genres) != 1 {
		t.Errorf("details = %+v", d)
	}
	if len(d.Credits.Cast) != 1 || d.Credits.Crew[0].Job != "Director" {
		t.Errorf("credits = %+v", d.Credits)
	}
}

func TestGenresCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`))
	})

	for i := 0; i < 3; i++ {
		genres, err := c.Genres(context.Background())
		if err != nil {
			t.Fatalf("Genres: %v", err)
		}
		if len(genres) != 2 {
			t.Fatalf("genres = %+v", genres)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("genre list fetched %d times, want 1", calls.Load())
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.MovieDetails(context.Background(), 1)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Popular(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Errorf("err = %v, want StatusError 502", err)
	}
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		c.MovieDetails(ctx, i)
	}
	if calls.Load() >= 10 {
		t.Errorf("breaker never opened, upstream hit %d times", calls.Load())
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.TMDBConfig{RPS: 1, CacheSize: 1, CacheTTL: time.Minute})
	if c.Configured() {
		t.Fatal("client without token should not be configured")
	}
	if _, err := c.Popular(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestImageURL(t *testing.T) {
	c := NewClient(config.TMDBConfig{ImageBaseURL: "https://img", RPS: 1, CacheSize: 1})
	if got := c.ImageURL("/abc.jpg", "w500"); got != "https://img/w500/abc.jpg" {
		t.Errorf("ImageURL = %q", got)
	}
	if got := c.ImageURL("", "w500"); got != "" {
		t.Errorf("empty path should give empty url, got %q", got)
	}
}
