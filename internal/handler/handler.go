package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/recommend"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/tmdb"
	"github.com/user/moovie/internal/utils"
)

// MovieSearcher TMDB 搜索
type MovieSearcher interface {
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.MoviePage, error)
	Configured() bool
}

// Recommender 推荐引擎
type Recommender interface {
	Recommend(ctx context.Context, userID uint, limit int) recommend.Result
}

// Handler HTTP 处理器
type Handler struct {
	Repos       *repository.Repositories
	Config      *config.Config
	Searcher    MovieSearcher
	Importer    *service.TMDBService
	Recommender Recommender
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, searcher MovieSearcher,
	importer *service.TMDBService, recommender Recommender) *Handler {
	registerValidators()
	return &Handler{
		Repos:       repos,
		Config:      cfg,
		Searcher:    searcher,
		Importer:    importer,
		Recommender: recommender,
	}
}

var validatorsOnce sync.Once

// registerValidators 在 gin 的校验器上注册业务规则
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("watchstatus", func(fl validator.FieldLevel) bool {
			return model.ValidWatchStatus(fl.Field().String())
		})
		// 0-10 分，连续值
		v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && f >= 0 && f <= 10
		})
	})
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Repos.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("health check: database unreachable")
		utils.ServiceUnavailable(c, "database unavailable")
		return
	}
	utils.Success(c, gin.H{"status": "ok", "tmdb_configured": h.Searcher.Configured()})
}

// parseID 解析路径中的正整数 ID
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// parsePage 读取 page / page_size 查询参数
func parsePage(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return repository.Page{Page: page, PageSize: size}.Normalize()
}

type pageResult struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// bindError 把校验错误整理成可读消息
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
		}
		utils.BadRequest(c, strings.Join(msgs, "; "))
		return
	}
	utils.BadRequest(c, "invalid request body")
}

// serverError 记录错误，对外只返回通用信息
func serverError(c *gin.Context, err error, msg string) {
	c.Error(err)
	logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	utils.InternalServerError(c, "")
}
