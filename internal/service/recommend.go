package service

import (
	"context"

	"github.com/user/moovie/internal/recommend"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/tmdb"
)

// MovieLister TMDB 的列表接口
type MovieLister interface {
	DiscoverByGenre(ctx context.Context, genreID, page int) (*tmdb.MoviePage, error)
	Popular(ctx context.Context, page int) (*tmdb.MoviePage, error)
}

// CatalogAdapter 把 TMDB 客户端适配为推荐目录
type CatalogAdapter struct {
	client MovieLister
}

func NewCatalogAdapter(client MovieLister) *CatalogAdapter {
	return &CatalogAdapter{client: client}
}

func (a *CatalogAdapter) DiscoverByGenre(ctx context.Context, genreID, page int) (*recommend.CatalogPage, error) {
	p, err := a.client.DiscoverByGenre(ctx, genreID, page)
	if err != nil {
		return nil, err
	}
	return toCatalogPage(p), nil
}

func (a *CatalogAdapter) ListPopular(ctx context.Context, page int) (*recommend.CatalogPage, error) {
	p, err := a.client.Popular(ctx, page)
	if err != nil {
		return nil, err
	}
	return toCatalogPage(p), nil
}

func toCatalogPage(p *tmdb.MoviePage) *recommend.CatalogPage {
	results := make([]recommend.Candidate, 0, len(p.Results))
	for _, m := range p.Results {
		results = append(results, recommend.Candidate{
			ExternalID:   m.ID,
			Title:        m.Title,
			ReleaseDate:  m.ReleaseDate,
			Overview:     m.Overview,
			PosterPath:   m.PosterPath,
			BackdropPath: m.BackdropPath,
			VoteAverage:  m.VoteAverage,
			VoteCount:    m.VoteCount,
		})
	}
	return &recommend.CatalogPage{
		Results:      results,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
	}
}

// RatingSource 从评分表读取推荐所需的评分快照
type RatingSource struct {
	ratings *repository.RatingRepository
}

func NewRatingSource(ratings *repository.RatingRepository) *RatingSource {
	return &RatingSource{ratings: ratings}
}

func (s *RatingSource) ListRatings(ctx context.Context, userID uint) ([]recommend.RatingRecord, error) {
	rows, err := s.ratings.ListWithGenres(ctx, userID)
	if err != nil {
		return nil, err
	}
	records := make([]recommend.RatingRecord, 0, len(rows))
	for _, r := range rows {
		rec := recommend.RatingRecord{
			MovieID: r.MovieID,
			UserID:  r.UserID,
			Value:   r.Value,
		}
		if r.Movie != nil {
			rec.ExternalID = r.Movie.TMDBID
			for _, g := range r.Movie.Genres {
				rec.Genres = append(rec.Genres, recommend.GenreRef{ID: g.ID, Name: g.Name})
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
