package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/response"
)

// Handler HTTP 处理器集合
type Handler struct {
	users       service.UserService
	relService  service.RelationshipService
	engagement  service.EngagementService
	media       service.MediaService
	tweets      service.TweetService
	feed        service.FeedService
	store       blob.Store
	mediaPrefix string
}

func New(svc *service.Services, store blob.Store, mediaPrefix string) *Handler {
	return &Handler{
		users:       svc.Users,
		relService:  svc.Relations,
		engagement:  svc.Engagement,
		media:       svc.Media,
		tweets:      svc.Tweets,
		feed:        svc.Feed,
		store:       store,
		mediaPrefix: mediaPrefix,
	}
}

// fail 把服务层错误映射为 HTTP 状态码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateKey):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUnsupportedMediaType):
		response.Error(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrMediaTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrConstraintViolation):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrReferentialIntegrity):
		response.Error(c, http.StatusUnprocessableEntity, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// outcome 非 Done 的结果返回 code=1 和提示语
func outcome(c *gin.Context, o service.Outcome, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if !o.OK() {
		response.Info(c, o.Message())
		return
	}
	response.Success(c, nil)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
