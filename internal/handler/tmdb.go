package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/tmdb"
	"github.com/user/moovie/internal/utils"
)

type bulkImportRequest struct {
	TMDBIDs []int `json:"tmdb_ids" binding:"required,min=1"`
}

// SearchTMDB 在 TMDB 上按标题搜索
func (h *Handler) SearchTMDB(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		utils.BadRequest(c, "q is required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	result, err := h.Searcher.SearchMovies(c.Request.Context(), q, page)
	if err != nil {
		tmdbError(c, err)
		return
	}
	utils.Success(c, result)
}

// ImportMovie 按 TMDB ID 导入电影，新建返回 201，已存在返回 200
func (h *Handler) ImportMovie(c *gin.Context) {
	tmdbID, err := strconv.Atoi(c.Param("tmdbId"))
	if err != nil || tmdbID <= 0 {
		utils.BadRequest(c, "invalid tmdbId")
		return
	}

	out, err := h.Importer.Import(c.Request.Context(), tmdbID)
	if err != nil {
		tmdbError(c, err)
		return
	}
	if out.Created {
		utils.Created(c, out)
		return
	}
	utils.SuccessWithMessage(c, "movie already imported", out)
}

// BulkImport 批量导入
func (h *Handler) BulkImport(c *gin.Context) {
	var req bulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.Importer.BulkImport(c.Request.Context(), req.TMDBIDs)
	if errors.Is(err, service.ErrEmptyBatch) || errors.Is(err, service.ErrBatchTooLarge) {
		utils.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		serverError(c, err, "bulk import")
		return
	}
	utils.Success(c, result)
}

// tmdbError 把 TMDB 相关错误映射为 HTTP 状态
func tmdbError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		utils.NotFound(c, "movie not found on TMDB")
	case errors.Is(err, tmdb.ErrNotConfigured):
		utils.ServiceUnavailable(c, "TMDB integration is not configured")
	case errors.Is(err, tmdb.ErrRateLimited):
		utils.Error(c, http.StatusTooManyRequests, "TMDB rate limit reached, try again later")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		utils.ServiceUnavailable(c, "TMDB is temporarily unavailable")
	case errors.Is(err, tmdb.ErrUnauthorized):
		c.Error(err)
		utils.Error(c, http.StatusBadGateway, "TMDB rejected the configured credentials")
	default:
		serverError(c, err, "tmdb request")
	}
}
