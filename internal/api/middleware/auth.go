package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/response"
)

const (
	TokenHeader = "api-key"
	TokenQuery  = "api_key"
	userIDKey   = "user_id"
)

// TokenResolver 由 service.UserService 实现
type TokenResolver interface {
	ResolveByToken(ctx context.Context, token string) (int64, error)
}

// Token 取请求携带的 api key，header 优先
func Token(c *gin.Context) string {
	if t := c.GetHeader(TokenHeader); t != "" {
		return t
	}
	return c.Query(TokenQuery)
}

// Auth 把 api key 解析为用户 id 存入上下文
func Auth(users TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := users.ResolveByToken(c.Request.Context(), Token(c))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				response.Unauthorized(c, "invalid api key")
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID 返回 Auth 写入的当前用户
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
