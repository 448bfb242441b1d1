package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/utils"
)

// ListMovies 本地电影库，支持类型筛选和标题搜索
func (h *Handler) ListMovies(c *gin.Context) {
	page := parsePage(c)
	filter := repository.MovieFilter{Query: strings.TrimSpace(c.Query("q"))}
	if g := c.Query("genre"); g != "" {
		id, err := strconv.Atoi(g)
		if err != nil || id <= 0 {
			utils.BadRequest(c, "invalid genre")
			return
		}
		filter.GenreID = id
	}

	movies, total, err := h.Repos.Movie.List(c.Request.Context(), filter, page)
	if err != nil {
		serverError(c, err, "list movies")
		return
	}
	utils.Success(c, pageResult{Items: movies, Total: total, Page: page.Page, PageSize: page.PageSize})
}

type movieDetail struct {
	Movie       *model.Movie          `json:"movie"`
	Stats       repository.MovieStats `json:"stats"`
	UserRating  *model.Rating         `json:"user_rating,omitempty"`
	WatchStatus *model.WatchStatus    `json:"watch_status,omitempty"`
}

// GetMovie 电影详情，登录时附带本人评分和观看状态
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	movie, err := h.Repos.Movie.FindByID(ctx, id)
	if err != nil {
		serverError(c, err, "find movie")
		return
	}
	if movie == nil {
		utils.NotFound(c, "movie not found")
		return
	}

	stats, err := h.Repos.Rating.StatsForMovie(ctx, id)
	if err != nil {
		serverError(c, err, "movie stats")
		return
	}
	detail := movieDetail{Movie: movie, Stats: stats}

	if userID := middleware.GetUserID(c); userID > 0 {
		if detail.UserRating, err = h.Repos.Rating.Get(ctx, userID, id); err != nil {
			serverError(c, err, "get rating")
			return
		}
		if detail.WatchStatus, err = h.Repos.WatchStatus.Get(ctx, userID, id); err != nil {
			serverError(c, err, "get watch status")
			return
		}
	}
	utils.Success(c, detail)
}

// DeleteMovie 删除电影（管理员）
func (h *Handler) DeleteMovie(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Repos.Movie.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "movie not found")
		return
	}
	if err != nil {
		serverError(c, err, "delete movie")
		return
	}
	utils.SuccessWithMessage(c, "movie deleted", nil)
}

// ListGenres 全部类型
func (h *Handler) ListGenres(c *gin.Context) {
	genres, err := h.Repos.Genre.List(c.Request.Context())
	if err != nil {
		serverError(c, err, "list genres")
		return
	}
	utils.Success(c, genres)
}

// GetPerson 人物及其参与的电影
func (h *Handler) GetPerson(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	person, err := h.Repos.Person.FindByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, err, "find person")
		return
	}
	if person == nil {
		utils.NotFound(c, "person not found")
		return
	}
	utils.Success(c, person)
}

// requireMovie 确认电影存在，不存在时已写入 404
func (h *Handler) requireMovie(c *gin.Context, id uint) bool {
	movie, err := h.Repos.Movie.FindByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, err, "find movie")
		return false
	}
	if movie == nil {
		utils.NotFound(c, "movie not found")
		return false
	}
	return true
}
