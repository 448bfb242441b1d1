package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// MovieFilter 电影列表筛选条件
type MovieFilter struct {
	GenreID int    // 0 表示不限
	Query   string // 标题模糊匹配
}

// FindByID 根据 ID 查找电影（含类型与演职员）
func (r *MovieRepository) FindByID(ctx context.Context, id uint) (*model.Movie, error) {
	var movie model.Movie
	err := r.withDetails(r.db.WithContext(ctx)).First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByTMDBID 根据 TMDB ID 查找电影
func (r *MovieRepository) FindByTMDBID(ctx context.Context, tmdbID int) (*model.Movie, error) {
	var movie model.Movie
	err := r.withDetails(r.db.WithContext(ctx)).Where("tmdb_id = ?", tmdbID).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *MovieRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Genres").
		Preload("Credits", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("kind ASC, sort_order ASC")
		}).
		Preload("Credits.Person")
}

// List 分页查询电影，按热度排序
func (r *MovieRepository) List(ctx context.Context, filter MovieFilter, page Page) ([]model.Movie, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.Movie{})
	if filter.GenreID > 0 {
		q = q.Where("id IN (?)", r.db.Table("movie_genres").Select("movie_id").Where("genre_id = ?", filter.GenreID))
	}
	if kw := strings.TrimSpace(filter.Query); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(original_title) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []model.Movie
	err := q.Preload("Genres").
		Order("popularity DESC, id ASC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&movies).Error
	return movies, total, err
}

// Create 创建电影，同时写入类型关联与演职员
func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

// Delete 删除电影及其关联数据
func (r *MovieRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("movie_id = ?", id).Delete(&model.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("movie_id = ?", id).Delete(&model.WatchStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM collection_movies WHERE movie_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Select("Genres", "Credits").Delete(&model.Movie{ID: id})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Count 电影总数
func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Movie{}).Count(&count).Error
	return count, err
}
