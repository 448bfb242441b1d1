package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/utils"
)

// ==================== 管理后台 ====================

// AdminStats 后台统计
func (h *Handler) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	users, err := h.Repos.User.Count(ctx)
	if err != nil {
		serverError(c, err, "count users failed")
		return
	}
	movies, err := h.Repos.Movie.Count(ctx)
	if err != nil {
		serverError(c, err, "count movies failed")
		return
	}

	utils.Success(c, gin.H{
		"users":           users,
		"movies":          movies,
		"tmdb_configured": h.Searcher != nil && h.Searcher.Configured(),
	})
}

// AdminUsers 用户列表
func (h *Handler) AdminUsers(c *gin.Context) {
	page := parsePage(c)
	users, total, err := h.Repos.User.List(c.Request.Context(), page)
	if err != nil {
		serverError(c, err, "list users failed")
		return
	}
	utils.Success(c, pageResult{Items: users, Total: total, Page: page.Page, PageSize: page.PageSize})
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// AdminSetRole 修改用户角色，不能修改自己
func (h *Handler) AdminSetRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if id == middleware.GetUserID(c) {
		utils.BadRequest(c, "cannot change your own role")
		return
	}

	err := h.Repos.User.UpdateRole(c.Request.Context(), id, req.Role)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "user not found")
		return
	}
	if err != nil {
		serverError(c, err, "update role failed")
		return
	}
	utils.SuccessWithMessage(c, "role updated", gin.H{"id": id, "role": req.Role})
}

// AdminSyncGenres 手动触发类型表同步
func (h *Handler) AdminSyncGenres(c *gin.Context) {
	n, err := h.Importer.SyncGenres(c.Request.Context())
	if err != nil {
		tmdbError(c, err)
		return
	}
	utils.Success(c, gin.H{"synced": n})
}
