package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/logging"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/utils"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"omitempty,min=3,max=32,alphanum"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register 注册，第一个注册的用户成为管理员
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 默认截取邮箱 @ 符号前的内容作为用户名
	username := req.Username
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	if existing, err := h.Repos.User.FindByEmail(ctx, email); err != nil {
		serverError(c, err, "find user by email")
		return
	} else if existing != nil {
		utils.Conflict(c, "email already registered")
		return
	}
	if existing, err := h.Repos.User.FindByUsername(ctx, username); err != nil {
		serverError(c, err, "find user by username")
		return
	} else if existing != nil {
		utils.Conflict(c, "username already taken")
		return
	}

	count, err := h.Repos.User.Count(ctx)
	if err != nil {
		serverError(c, err, "count users")
		return
	}
	user, err := h.Repos.User.Create(ctx, email, username, req.Password)
	if err != nil {
		serverError(c, err, "create user")
		return
	}
	if count == 0 {
		if err := h.Repos.User.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
			serverError(c, err, "promote first user")
			return
		}
		user.Role = model.RoleAdmin
	}
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	token, err := h.issueToken(c, user)
	if err != nil {
		serverError(c, err, "issue token")
		return
	}
	utils.Created(c, authResponse{Token: token, User: user})
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()

	user, err := h.Repos.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		serverError(c, err, "find user by email")
		return
	}
	if user == nil || !h.Repos.User.CheckPassword(user, req.Password) {
		utils.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.issueToken(c, user)
	if err != nil {
		serverError(c, err, "issue token")
		return
	}
	utils.Success(c, authResponse{Token: token, User: user})
}

// Logout 清除 Cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	utils.Success(c, nil)
}

// Me 当前用户及观看统计
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Repos.User.FindByID(ctx, middleware.GetUserID(c))
	if err != nil {
		serverError(c, err, "find user")
		return
	}
	if user == nil {
		utils.Unauthorized(c, "account no longer exists")
		return
	}
	counts, err := h.Repos.WatchStatus.CountByUser(ctx, user.ID)
	if err != nil {
		serverError(c, err, "count watch statuses")
		return
	}
	utils.Success(c, gin.H{"user": user, "watch_counts": counts})
}

// issueToken 生成 JWT 并写入 Cookie
func (h *Handler) issueToken(c *gin.Context, user *model.User) (string, error) {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		return "", err
	}
	secure := h.Config.Env == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", secure, true)
	return token, nil
}
