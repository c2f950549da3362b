package api

import (
	"net/http"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/yblog/config"
	"github.com/d60-Lab/yblog/internal/api/handler"
	"github.com/d60-Lab/yblog/internal/api/middleware"
	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/blob"
)

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, svc *service.Services, store blob.Store) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		sentrygin.New(sentrygin.Options{Repanic: true}),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.Logger(),
		middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		gzip.Gzip(gzip.DefaultCompression),
	)

	h := handler.New(svc, store, cfg.Media.URLPrefix)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET(strings.TrimSuffix(cfg.Media.URLPrefix, "/")+"/*key", h.ServeMedia)

	api := r.Group("/api")
	api.POST("/users", h.CreateUser)

	authed := api.Group("", middleware.Auth(svc.Users))
	{
		authed.GET("/users/me", h.Me)
		authed.GET("/users/:id", h.GetUser)
		authed.POST("/users/:id/follow", h.Follow)
		authed.DELETE("/users/:id/follow", h.Unfollow)

		authed.GET("/tweets", h.Feed)
		authed.POST("/tweets", h.CreateTweet)
		authed.DELETE("/tweets/:id", h.DeleteTweet)
		authed.POST("/tweets/:id/likes", h.Like)
		authed.DELETE("/tweets/:id/likes", h.Unlike)

		authed.POST("/medias", h.UploadMedia)
	}
	return r
}
