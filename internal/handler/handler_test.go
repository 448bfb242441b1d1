package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/user/moovie/internal/recommend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRecommender struct {
	gotLimit int
	result   recommend.Result
}

func (s *stubRecommender) Recommend(ctx context.Context, userID uint, limit int) recommend.Result {
	s.gotLimit = limit
	return s.result
}

func serveRecommendations(h *Handler, query string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/recommendations", h.Recommendations)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendations"+query, nil))
	return w
}

func TestRecommendationsLimit(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, recommend.DefaultLimit},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=0", http.StatusOK, 0},
		{"?limit=500", http.StatusOK, maxRecommendationLimit},
		{"?limit=-2", http.StatusBadRequest, -1},
		{"?limit=ten", http.StatusBadRequest, -1},
		{"?limit=", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		stub := &stubRecommender{gotLimit: -1, result: recommend.Result{Items: []recommend.Item{}, Source: recommend.SourcePersonalized}}
		w := serveRecommendations(&Handler{Recommender: stub}, tt.query)
		if w.Code != tt.wantCode {
			t.Errorf("%q: status = %d, want %d", tt.query, w.Code, tt.wantCode)
		}
		if stub.gotLimit != tt.wantLimit {
			t.Errorf("%q: limit = %d, want %d", tt.query, stub.gotLimit, tt.wantLimit)
		}
	}
}

func TestRecommendationsMessage(t *testing.T) {
	for source, want := range map[recommend.Source]string{
		recommend.SourcePersonalized: personalizedMessage,
		recommend.SourcePopular:      popularMessage,
	} {
		stub := &stubRecommender{result: recommend.Result{
			Items:  []recommend.Item{{Candidate: recommend.Candidate{ExternalID: 1}, Score: 50}},
			Source: source,
		}}
		w := serveRecommendations(&Handler{Recommender: stub}, "")

		var body struct {
			Data recommendationResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Data.Message != want || len(body.Data.Recommendations) != 1 {
			t.Errorf("%s: %+v", source, body.Data)
		}
	}
}

func TestValidators(t *testing.T) {
	registerValidators()

	ok := func(v float64) *float64 { return &v }
	for _, tt := range []struct {
		value *float64
		valid bool
	}{
		{ok(0), true},
		{ok(7.5), true},
		{ok(10), true},
		{ok(7.25), true},
		{ok(7.3), true},
		{ok(9.9), true},
		{ok(-0.5), false},
		{ok(10.01), false},
		{ok(11), false},
		{nil, false},
	} {
		err := binding.Validator.ValidateStruct(ratingRequest{Value: tt.value})
		if (err == nil) != tt.valid {
			t.Errorf("rating %v: err = %v", tt.value, err)
		}
	}

	for status, valid := range map[string]bool{"want_to_watch": true, "watched": true, "dropped": false, "": false} {
		err := binding.Validator.ValidateStruct(statusRequest{Status: status})
		if (err == nil) != valid {
			t.Errorf("status %q: err = %v", status, err)
		}
	}
}
