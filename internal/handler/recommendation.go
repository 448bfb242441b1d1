package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/recommend"
	"github.com/user/moovie/internal/utils"
)

const maxRecommendationLimit = 50

const (
	personalizedMessage = "Recommendations based on your ratings"
	popularMessage      = "Popular movies right now. Rate a few movies to get personalized picks"
)

type recommendationResponse struct {
	Recommendations []recommend.Item `json:"recommendations"`
	Message         string           `json:"message"`
}

// Recommendations 个性化推荐，无评分时返回热门
func (h *Handler) Recommendations(c *gin.Context) {
	limit := recommend.DefaultLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxRecommendationLimit)
	}

	res := h.Recommender.Recommend(c.Request.Context(), middleware.GetUserID(c), limit)
	msg := personalizedMessage
	if res.Source == recommend.SourcePopular {
		msg = popularMessage
	}
	utils.Success(c, recommendationResponse{Recommendations: res.Items, Message: msg})
}
