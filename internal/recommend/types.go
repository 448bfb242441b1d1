// Package recommend 基于用户评分的类型偏好推荐
package recommend

import "context"

// GenreRef 电影类型，ID 与外部目录一致
type GenreRef struct {
	ID   int
	Name string
}

// RatingRecord 用户的一条评分，Value 取值 0-10
type RatingRecord struct {
	MovieID    uint
	ExternalID int
	UserID     uint
	Value      float64
	Genres     []GenreRef
}

// GenreAffinity 用户对某类型的偏好度，Score 取值 [0, 1]
type GenreAffinity struct {
	GenreID   int     `json:"genre_id"`
	GenreName string  `json:"genre_name"`
	Score     float64 `json:"score"`
}

// Candidate 外部目录返回的候选电影
type Candidate struct {
	ExternalID   int     `json:"id"`
	Title        string  `json:"title"`
	ReleaseDate  string  `json:"release_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

// Item 推荐结果，候选字段平铺输出
type Item struct {
	Candidate
	Score  float64 `json:"recommendation_score"`
	Reason string  `json:"recommendation_reason,omitempty"`
}

// CatalogPage 目录分页结果
type CatalogPage struct {
	Results      []Candidate
	TotalPages   int
	TotalResults int
}

// RatingStore 评分来源，无评分时返回空切片而不是错误
type RatingStore interface {
	ListRatings(ctx context.Context, userID uint) ([]RatingRecord, error)
}

// Catalog 外部电影目录
type Catalog interface {
	DiscoverByGenre(ctx context.Context, genreID, page int) (*CatalogPage, error)
	ListPopular(ctx context.Context, page int) (*CatalogPage, error)
}

// Source 推荐结果来源
type Source string

const (
	SourcePersonalized Source = "personalized"
	SourcePopular      Source = "popular"
)

// Result 一次推荐的输出
type Result struct {
	Items  []Item
	Source Source
}
