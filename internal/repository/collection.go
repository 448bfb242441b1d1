package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
)

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create 创建片单
func (r *CollectionRepository) Create(ctx context.Context, c *model.Collection) error {
	return r.db.WithContext(ctx).Omit("Movies").Create(c).Error
}

// Update 更新片单基本信息（仅本人）
func (r *CollectionRepository) Update(ctx context.Context, c *model.Collection) error {
	res := r.db.WithContext(ctx).Model(&model.Collection{}).
		Where("id = ? AND user_id = ?", c.ID, c.UserID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
			"is_public":   c.IsPublic,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除片单（仅本人）
func (r *CollectionRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Exec("DELETE FROM collection_movies WHERE collection_id = ?", id).Error
	})
}

// FindByID 获取片单及其电影
func (r *CollectionRepository) FindByID(ctx context.Context, id uint) (*model.Collection, error) {
	var c model.Collection
	err := r.db.WithContext(ctx).Preload("Movies").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser 获取用户片单，onlyPublic 为 true 时只返回公开片单
func (r *CollectionRepository) ListByUser(ctx context.Context, userID uint, onlyPublic bool) ([]model.Collection, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyPublic {
		q = q.Where("is_public = ?", true)
	}
	var collections []model.Collection
	err := q.Order("updated_at DESC, id DESC").Find(&collections).Error
	return collections, err
}

// AddMovie 向片单添加电影（重复添加无副作用）
func (r *CollectionRepository) AddMovie(ctx context.Context, userID, collectionID, movieID uint) error {
	c, err := r.owned(ctx, userID, collectionID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec("INSERT INTO collection_movies (collection_id, movie_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			c.ID, movieID).Error
		if err != nil {
			return err
		}
		return tx.Model(c).Update("updated_at", time.Now()).Error
	})
}

// RemoveMovie 从片单移除电影
func (r *CollectionRepository) RemoveMovie(ctx context.Context, userID, collectionID, movieID uint) error {
	c, err := r.owned(ctx, userID, collectionID)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec("DELETE FROM collection_movies WHERE collection_id = ? AND movie_id = ?", c.ID, movieID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CollectionRepository) owned(ctx context.Context, userID, id uint) (*model.Collection, error) {
	var c model.Collection
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
