package model

import (
	"time"
)

// Movie 电影模型（TMDB 导入）
type Movie struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TMDBID        int       `json:"tmdb_id" gorm:"column:tmdb_id;uniqueIndex;not null"`
	IMDbID        string    `json:"imdb_id,omitempty" gorm:"column:imdb_id"`
	Title         string    `json:"title" gorm:"index;not null"`
	OriginalTitle string    `json:"original_title"`
	Overview      string    `json:"overview"`
	Tagline       string    `json:"tagline,omitempty"`
	ReleaseDate   string    `json:"release_date"`
	Runtime       int       `json:"runtime"`
	PosterPath    string    `json:"poster_path"`
	BackdropPath  string    `json:"backdrop_path"`
	VoteAverage   float64   `json:"vote_average" gorm:"index"`
	VoteCount     int       `json:"vote_count"`
	Popularity    float64   `json:"popularity"`
	Genres        []Genre   `json:"genres,omitempty" gorm:"many2many:movie_genres;"`
	Credits       []Credit  `json:"credits,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"index"`
}

// Year 上映年份
func (m *Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// GenreIDs 电影所属类型 ID
func (m *Movie) GenreIDs() []int {
	ids := make([]int, 0, len(m.Genres))
	for _, g := range m.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// Genre 类型，ID 直接沿用 TMDB 的类型 ID
type Genre struct {
	ID   int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name string `json:"name" gorm:"not null"`
}

// Person 人物（导演/演员/编剧）
type Person struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	TMDBID             int       `json:"tmdb_id" gorm:"column:tmdb_id;uniqueIndex;not null"`
	Name               string    `json:"name" gorm:"index;not null"`
	ProfilePath        string    `json:"profile_path"`
	KnownForDepartment string    `json:"known_for_department"`
	Credits            []Credit  `json:"credits,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// 参与方式
const (
	CreditCast = "cast"
	CreditCrew = "crew"
)

// Credit 电影与人物的关联（演员表 / 职员表）
type Credit struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	MovieID   uint    `json:"movie_id" gorm:"index;not null"`
	PersonID  uint    `json:"person_id" gorm:"index;not null"`
	Kind      string  `json:"kind" gorm:"not null"` // cast / crew
	Character string  `json:"character,omitempty"`
	Job       string  `json:"job,omitempty"`
	Order     int     `json:"order" gorm:"column:sort_order"`
	Person    *Person `json:"person,omitempty"`
	Movie     *Movie  `json:"movie,omitempty"`
}
