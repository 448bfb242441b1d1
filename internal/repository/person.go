package repository

import (
	"context"
	"errors"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// Upsert 按 TMDB ID 创建或更新人物，写回本地 ID
func (r *PersonRepository) Upsert(ctx context.Context, p *model.Person) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tmdb_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "profile_path", "known_for_department", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return err
	}
	// 冲突更新时部分驱动不会回填主键
	if p.ID == 0 {
		var existing model.Person
		if err := db.Select("id").Where("tmdb_id = ?", p.TMDBID).First(&existing).Error; err != nil {
			return err
		}
		p.ID = existing.ID
	}
	return nil
}

// FindByID 根据 ID 查找人物，附带参与的电影
func (r *PersonRepository) FindByID(ctx context.Context, id uint) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Preload("Credits", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("movie_id ASC, sort_order ASC")
		}).
		Preload("Credits.Movie").
		First(&person, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}
