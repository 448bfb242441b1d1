package recommend

import (
	"context"
	"fmt"

	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit  = 10
	perGenreLimit = 5
	PopularReason = "Popular item you might enjoy"
)

// Engine 推荐编排：读评分、算偏好、按类型拉候选、打分排序。
// 无状态，可并发使用。
type Engine struct {
	ratings RatingStore
	catalog Catalog
}

func NewEngine(ratings RatingStore, catalog Catalog) *Engine {
	return &Engine{ratings: ratings, catalog: catalog}
}

// genreBatch 单个类型的拉取结果，err 非空时该类型被跳过
type genreBatch struct {
	items []Item
	err   error
}

// Recommend 为用户生成最多 limit 条推荐，不返回错误：
// 无评分、评分读取失败或没有候选时退回热门列表
func (e *Engine) Recommend(ctx context.Context, userID uint, limit int) Result {
	log := logging.Ctx(ctx)

	if limit <= 0 {
		return Result{Items: []Item{}, Source: SourcePersonalized}
	}

	ratings, err := e.ratings.ListRatings(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("load ratings failed, using popular fallback")
		return e.fallback(ctx, limit)
	}
	if len(ratings) == 0 {
		return e.fallback(ctx, limit)
	}

	top := TopGenres(ComputeAffinities(ratings))
	if len(top) == 0 {
		return e.fallback(ctx, limit)
	}

	rated := make(map[int]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.ExternalID] = struct{}{}
	}

	batches := e.fetchGenres(ctx, top, rated)

	var candidates []Item
	for i, b := range batches {
		if b.err != nil {
			metrics.RecommendationGenreFailures.Inc()
			log.Warn().Err(b.err).Int("genre_id", top[i].GenreID).Msg("genre candidates unavailable, skipping")
			continue
		}
		candidates = append(candidates, b.items...)
	}
	if len(candidates) == 0 {
		return e.fallback(ctx, limit)
	}

	items := rank(candidates, limit)
	metrics.RecommendationRequests.WithLabelValues(string(SourcePersonalized)).Inc()
	log.Debug().Uint("user_id", userID).Int("genres", len(top)).Int("candidates", len(candidates)).
		Int("items", len(items)).Msg("personalized recommendations")
	return Result{Items: items, Source: SourcePersonalized}
}

// fetchGenres 并发拉取各类型第一页，结果按类型顺序存放
func (e *Engine) fetchGenres(ctx context.Context, top []GenreAffinity, rated map[int]struct{}) []genreBatch {
	batches := make([]genreBatch, len(top))
	var g errgroup.Group
	for i := range top {
		i := i
		genre := top[i]
		g.Go(func() error {
			items, err := e.genreCandidates(ctx, genre, rated)
			batches[i] = genreBatch{items: items, err: err}
			return nil
		})
	}
	g.Wait()
	return batches
}

func (e *Engine) genreCandidates(ctx context.Context, genre GenreAffinity, rated map[int]struct{}) ([]Item, error) {
	page, err := e.catalog.DiscoverByGenre(ctx, genre.GenreID, 1)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	reason := fmt.Sprintf("Because you enjoy %s movies", genre.GenreName)
	items := make([]Item, 0, perGenreLimit)
	for _, c := range page.Results {
		if len(items) == perGenreLimit {
			break
		}
		if _, ok := rated[c.ExternalID]; ok {
			continue
		}
		items = append(items, Item{
			Candidate: c,
			Score:     Score(c, &genre),
			Reason:    reason,
		})
	}
	return items, nil
}

func (e *Engine) fallback(ctx context.Context, limit int) Result {
	metrics.RecommendationRequests.WithLabelValues(string(SourcePopular)).Inc()
	return Result{Items: e.Popular(ctx, limit), Source: SourcePopular}
}

// Popular 热门列表第一页，保持目录顺序，截断到 limit。
// 目录不可用时返回空列表。
func (e *Engine) Popular(ctx context.Context, limit int) []Item {
	if limit <= 0 {
		return []Item{}
	}
	page, err := e.catalog.ListPopular(ctx, 1)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("popular catalog unavailable")
		return []Item{}
	}
	if page == nil {
		return []Item{}
	}

	items := make([]Item, 0, len(page.Results))
	for _, c := range page.Results {
		items = append(items, Item{
			Candidate: c,
			Score:     Score(c, nil),
			Reason:    PopularReason,
		})
	}
	return truncate(items, limit)
}
