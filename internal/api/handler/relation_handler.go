package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/api/middleware"
)

// Follow 关注用户
// @Summary 关注用户
// @Tags 关系链
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "被关注用户ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/users/{id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.relService.Follow(c.Request.Context(), target, middleware.UserID(c))
	outcome(c, o, err)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "被关注用户ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/users/{id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.relService.Unfollow(c.Request.Context(), target, middleware.UserID(c))
	outcome(c, o, err)
}
