package model

import "time"

// Rating 用户评分（0-10，可带短评）
type Rating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_rating_user_movie;not null"`
	MovieID   uint      `json:"movie_id" gorm:"uniqueIndex:idx_rating_user_movie;index;not null"`
	Value     float64   `json:"value" gorm:"not null"`
	Review    string    `json:"review,omitempty"`
	Movie     *Movie    `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 观看状态
const (
	StatusWantToWatch = "want_to_watch"
	StatusWatching    = "watching"
	StatusWatched     = "watched"
)

// ValidWatchStatus 是否合法的观看状态
func ValidWatchStatus(s string) bool {
	switch s {
	case StatusWantToWatch, StatusWatching, StatusWatched:
		return true
	}
	return false
}

// WatchStatus 用户对电影的观看状态
type WatchStatus struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"uniqueIndex:idx_watch_user_movie;not null"`
	MovieID   uint       `json:"movie_id" gorm:"uniqueIndex:idx_watch_user_movie;not null"`
	Status    string     `json:"status" gorm:"index;not null"`
	WatchedAt *time.Time `json:"watched_at,omitempty"`
	Movie     *Movie     `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Collection 用户片单
type Collection struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	Movies      []Movie   `json:"movies,omitempty" gorm:"many2many:collection_movies;"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
