package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert 创建或更新评分（同一用户同一电影唯一）
func (r *RatingRepository) Upsert(ctx context.Context, rating *model.Rating) error {
	now := time.Now()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "review", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return err
	}
	return db.Where("user_id = ? AND movie_id = ?", rating.UserID, rating.MovieID).First(rating).Error
}

// Delete 删除评分
func (r *RatingRepository) Delete(ctx context.Context, userID, movieID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Rating{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get 获取用户对某部电影的评分
func (r *RatingRepository) Get(ctx context.Context, userID, movieID uint) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// ListByUser 分页获取用户评分（含电影）
func (r *RatingRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]model.Rating, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.Rating{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ratings []model.Rating
	err := q.Preload("Movie").
		Order("updated_at DESC, id DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&ratings).Error
	return ratings, total, err
}

// ListWithGenres 获取用户全部评分，附带电影类型（推荐计算用）
func (r *RatingRepository) ListWithGenres(ctx context.Context, userID uint) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Movie.Genres").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&ratings).Error
	return ratings, err
}

// MovieStats 站内评分统计
type MovieStats struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// StatsForMovie 计算电影的站内平均分
func (r *RatingRepository) StatsForMovie(ctx context.Context, movieID uint) (MovieStats, error) {
	var stats MovieStats
	err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("COALESCE(AVG(value), 0) AS average, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(&stats).Error
	return stats, err
}
