package handler

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/api/middleware"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/response"
)

// UploadMedia 给自己的推文上传图片
// @Summary 上传图片
// @Tags 媒体
// @Accept multipart/form-data
// @Produce json
// @Param api-key header string true "用户凭证"
// @Param tweet_id formData int true "推文ID"
// @Param image_file formData file true "图片 png/jpg/jpeg/gif"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 413 {object} response.Response
// @Failure 415 {object} response.Response
// @Router /api/medias [post]
func (h *Handler) UploadMedia(c *gin.Context) {
	tweetID, err := strconv.ParseInt(c.PostForm("tweet_id"), 10, 64)
	if err != nil || tweetID <= 0 {
		response.BadRequest(c, "invalid tweet_id")
		return
	}
	fh, err := c.FormFile("image_file")
	if err != nil {
		response.BadRequest(c, "image_file required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	id, err := h.media.Attach(c.Request.Context(), tweetID, middleware.UserID(c), middleware.Token(c), fh.Filename, f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"media_id": id})
}

// ServeMedia 按 key 读取图片
func (h *Handler) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.store.Open(key)
	if err != nil {
		if errors.Is(err, blob.ErrInvalidKey) || errors.Is(err, fs.ErrNotExist) {
			response.NotFound(c, "media not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, ct, rc, nil)
}
