package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/blob"
)

// Cache 读缓存接口，由 internal/cache 实现
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any)
	Delete(ctx context.Context, keys ...string)
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool { return false }
func (noCache) SetJSON(context.Context, string, any)      {}
func (noCache) Delete(context.Context, ...string)         {}

// UserRef 用户的 (id, 展示名)
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Services 聚合所有业务服务，供 HTTP 层和压测工具使用
type Services struct {
	Users      UserService
	Relations  RelationshipService
	Engagement EngagementService
	Media      MediaService
	Tweets     TweetService
	Feed       FeedService
}

// New 用同一个 *gorm.DB 组装全部服务；c 为 nil 时不使用缓存
func New(db *gorm.DB, store blob.Store, c Cache) *Services {
	if c == nil {
		c = noCache{}
	}
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	feedRepo := repository.NewFeedRepository(db)

	rel := NewRelationshipService(db, userRepo, followRepo, c)
	media := NewMediaService(db, tweetRepo, mediaRepo, store)
	return &Services{
		Users:      NewUserService(db, userRepo, rel, c),
		Relations:  rel,
		Engagement: NewEngagementService(db, tweetRepo, likeRepo),
		Media:      media,
		Tweets:     NewTweetService(db, tweetRepo, likeRepo, media),
		Feed:       NewFeedService(db, userRepo, feedRepo),
	}
}
