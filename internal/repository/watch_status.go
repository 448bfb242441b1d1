package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchStatusRepository struct {
	db *gorm.DB
}

func NewWatchStatusRepository(db *gorm.DB) *WatchStatusRepository {
	return &WatchStatusRepository{db: db}
}

// Upsert 设置观看状态，标记为已看时记录时间
func (r *WatchStatusRepository) Upsert(ctx context.Context, ws *model.WatchStatus) error {
	now := time.Now()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now
	if ws.Status == model.StatusWatched && ws.WatchedAt == nil {
		ws.WatchedAt = &now
	}
	if ws.Status != model.StatusWatched {
		ws.WatchedAt = nil
	}
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "watched_at", "updated_at"}),
	}).Create(ws).Error
	if err != nil {
		return err
	}
	return db.Where("user_id = ? AND movie_id = ?", ws.UserID, ws.MovieID).First(ws).Error
}

// Remove 清除观看状态
func (r *WatchStatusRepository) Remove(ctx context.Context, userID, movieID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.WatchStatus{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser 按状态分页获取，status 为空表示全部
func (r *WatchStatusRepository) ListByUser(ctx context.Context, userID uint, status string, page Page) ([]model.WatchStatus, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&model.WatchStatus{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.WatchStatus
	err := q.Preload("Movie").
		Order("updated_at DESC, id DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&records).Error
	return records, total, err
}

// Get 获取用户对某部电影的观看状态
func (r *WatchStatusRepository) Get(ctx context.Context, userID, movieID uint) (*model.WatchStatus, error) {
	var rec model.WatchStatus
	err := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountByUser 按状态统计数量
func (r *WatchStatusRepository) CountByUser(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.WatchStatus{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
