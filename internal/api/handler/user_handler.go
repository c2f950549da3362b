package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/api/middleware"
	"github.com/d60-Lab/yblog/pkg/response"
)

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// CreateUser 注册用户，api key 由调用方在 header 或 query 中提供
// @Summary 注册用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param request body createUserRequest true "用户信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token := middleware.Token(c)
	if token == "" {
		response.BadRequest(c, "api key required")
		return
	}
	id, err := h.users.Create(c.Request.Context(), req.Name, req.Nickname, req.Email, token)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// Me 当前用户主页
// @Summary 当前用户
// @Tags 用户
// @Produce json
// @Param api-key header string true "用户凭证"
// @Success 200 {object} response.Response{data=service.ProfileView}
// @Router /api/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	view, err := h.users.ResolveByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// GetUser 用户主页：关注与粉丝
// @Summary 用户主页
// @Tags 用户
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=service.ProfileView}
// @Failure 404 {object} response.Response
// @Router /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.users.ResolveByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}
