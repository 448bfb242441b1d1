package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound 更新或删除时没有匹配的记录
var ErrNotFound = errors.New("record not found")

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Genre{},
		&model.Movie{},
		&model.Person{},
		&model.Credit{},
		&model.Rating{},
		&model.WatchStatus{},
		&model.Collection{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB          *gorm.DB
	User        *UserRepository
	Movie       *MovieRepository
	Genre       *GenreRepository
	Person      *PersonRepository
	Rating      *RatingRepository
	WatchStatus *WatchStatusRepository
	Collection  *CollectionRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:          db,
		User:        NewUserRepository(db),
		Movie:       NewMovieRepository(db),
		Genre:       NewGenreRepository(db),
		Person:      NewPersonRepository(db),
		Rating:      NewRatingRepository(db),
		WatchStatus: NewWatchStatusRepository(db),
		Collection:  NewCollectionRepository(db),
	}
}

// Page 分页参数
type Page struct {
	Page     int
	PageSize int
}

// Normalize 修正非法分页参数
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}

// Offset 偏移量
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}
