package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/utils"
)

type ratingRequest struct {
	Value  *float64 `json:"value" binding:"required,rating"`
	Review string   `json:"review" binding:"max=5000"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,watchstatus"`
}

// RateMovie 评分或修改评分
func (h *Handler) RateMovie(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !h.requireMovie(c, movieID) {
		return
	}

	rating := &model.Rating{
		UserID:  middleware.GetUserID(c),
		MovieID: movieID,
		Value:   *req.Value,
		Review:  req.Review,
	}
	if err := h.Repos.Rating.Upsert(c.Request.Context(), rating); err != nil {
		serverError(c, err, "upsert rating")
		return
	}
	utils.Success(c, rating)
}

// DeleteRating 删除评分
func (h *Handler) DeleteRating(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Repos.Rating.Delete(c.Request.Context(), middleware.GetUserID(c), movieID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "rating not found")
		return
	}
	if err != nil {
		serverError(c, err, "delete rating")
		return
	}
	utils.SuccessWithMessage(c, "rating removed", nil)
}

// MyRatings 本人评分列表
func (h *Handler) MyRatings(c *gin.Context) {
	page := parsePage(c)
	ratings, total, err := h.Repos.Rating.ListByUser(c.Request.Context(), middleware.GetUserID(c), page)
	if err != nil {
		serverError(c, err, "list ratings")
		return
	}
	utils.Success(c, pageResult{Items: ratings, Total: total, Page: page.Page, PageSize: page.PageSize})
}

// SetWatchStatus 设置观看状态（想看 / 在看 / 看过）
func (h *Handler) SetWatchStatus(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !h.requireMovie(c, movieID) {
		return
	}

	ws := &model.WatchStatus{
		UserID:  middleware.GetUserID(c),
		MovieID: movieID,
		Status:  req.Status,
	}
	if err := h.Repos.WatchStatus.Upsert(c.Request.Context(), ws); err != nil {
		serverError(c, err, "upsert watch status")
		return
	}
	utils.Success(c, ws)
}

// ClearWatchStatus 清除观看状态
func (h *Handler) ClearWatchStatus(c *gin.Context) {
	movieID, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Repos.WatchStatus.Remove(c.Request.Context(), middleware.GetUserID(c), movieID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "watch status not found")
		return
	}
	if err != nil {
		serverError(c, err, "remove watch status")
		return
	}
	utils.SuccessWithMessage(c, "watch status cleared", nil)
}

// Watchlist 本人观看列表，可按状态筛选
func (h *Handler) Watchlist(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !model.ValidWatchStatus(status) {
		utils.BadRequest(c, "invalid status")
		return
	}
	page := parsePage(c)
	items, total, err := h.Repos.WatchStatus.ListByUser(c.Request.Context(), middleware.GetUserID(c), status, page)
	if err != nil {
		serverError(c, err, "list watch statuses")
		return
	}
	utils.Success(c, pageResult{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize})
}
