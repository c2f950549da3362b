package handler

import (
	"path"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/api/middleware"
	"github.com/d60-Lab/yblog/pkg/response"
)

type createTweetRequest struct {
	Content string `json:"content" binding:"required"`
}

// Feed 关注的人发布的推文，按点赞数降序
// @Summary 信息流
// @Tags 推文
// @Produce json
// @Param api-key header string true "用户凭证"
// @Success 200 {object} response.Response{data=[]service.TweetView}
// @Router /api/tweets [get]
func (h *Handler) Feed(c *gin.Context) {
	views, err := h.feed.AssembleFeed(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	for i := range views {
		for j, key := range views[i].Attachments {
			views[i].Attachments[j] = path.Join(h.mediaPrefix, key)
		}
	}
	response.Success(c, views)
}

// CreateTweet 发布推文
// @Summary 发布推文
// @Tags 推文
// @Accept json
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param request body createTweetRequest true "推文内容"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/tweets [post]
func (h *Handler) CreateTweet(c *gin.Context) {
	var req createTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.tweets.Create(c.Request.Context(), middleware.UserID(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"tweet_id": id})
}

// DeleteTweet 删除自己的推文，连同附件与点赞
// @Summary 删除推文
// @Tags 推文
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "推文ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/tweets/{id} [delete]
func (h *Handler) DeleteTweet(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.tweets.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Like 点赞
// @Summary 点赞
// @Tags 推文
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "推文ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/tweets/{id}/likes [post]
func (h *Handler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.engagement.Like(c.Request.Context(), middleware.UserID(c), id)
	outcome(c, o, err)
}

// Unlike 取消点赞
// @Summary 取消点赞
// @Tags 推文
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param id path int true "推文ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/tweets/{id}/likes [delete]
func (h *Handler) Unlike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := h.engagement.Unlike(c.Request.Context(), middleware.UserID(c), id)
	outcome(c, o, err)
}
