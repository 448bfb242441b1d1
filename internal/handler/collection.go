package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/utils"
)

type collectionRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=1000"`
	IsPublic    bool   `json:"is_public"`
}

// ListCollections 本人片单
func (h *Handler) ListCollections(c *gin.Context) {
	collections, err := h.Repos.Collection.ListByUser(c.Request.Context(), middleware.GetUserID(c), false)
	if err != nil {
		serverError(c, err, "list collections")
		return
	}
	utils.Success(c, collections)
}

// CreateCollection 创建片单
func (h *Handler) CreateCollection(c *gin.Context) {
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	col := &model.Collection{
		UserID:      middleware.GetUserID(c),
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	if err := h.Repos.Collection.Create(c.Request.Context(), col); err != nil {
		serverError(c, err, "create collection")
		return
	}
	utils.Created(c, col)
}

// GetCollection 片单详情，非公开片单仅本人可见
func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	col, err := h.Repos.Collection.FindByID(c.Request.Context(), id)
	if err != nil {
		serverError(c, err, "find collection")
		return
	}
	// 私有片单对他人表现为不存在
	if col == nil || (!col.IsPublic && col.UserID != middleware.GetUserID(c)) {
		utils.NotFound(c, "collection not found")
		return
	}
	utils.Success(c, col)
}

// UpdateCollection 修改片单
func (h *Handler) UpdateCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req collectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	col := &model.Collection{
		ID:          id,
		UserID:      middleware.GetUserID(c),
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	err := h.Repos.Collection.Update(c.Request.Context(), col)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "collection not found")
		return
	}
	if err != nil {
		serverError(c, err, "update collection")
		return
	}
	utils.Success(c, col)
}

// DeleteCollection 删除片单
func (h *Handler) DeleteCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Repos.Collection.Delete(c.Request.Context(), middleware.GetUserID(c), id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "collection not found")
		return
	}
	if err != nil {
		serverError(c, err, "delete collection")
		return
	}
	utils.SuccessWithMessage(c, "collection deleted", nil)
}

// AddCollectionMovie 向片单添加电影
func (h *Handler) AddCollectionMovie(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	movieID, ok := parseID(c, "movieId")
	if !ok {
		return
	}
	if !h.requireMovie(c, movieID) {
		return
	}
	err := h.Repos.Collection.AddMovie(c.Request.Context(), middleware.GetUserID(c), id, movieID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "collection not found")
		return
	}
	if err != nil {
		serverError(c, err, "add collection movie")
		return
	}
	utils.SuccessWithMessage(c, "movie added", nil)
}

// RemoveCollectionMovie 从片单移除电影
func (h *Handler) RemoveCollectionMovie(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	movieID, ok := parseID(c, "movieId")
	if !ok {
		return
	}
	err := h.Repos.Collection.RemoveMovie(c.Request.Context(), middleware.GetUserID(c), id, movieID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "movie not in collection")
		return
	}
	if err != nil {
		serverError(c, err, "remove collection movie")
		return
	}
	utils.SuccessWithMessage(c, "movie removed", nil)
}
