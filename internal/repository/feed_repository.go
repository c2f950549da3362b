package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/model"
)

type FeedRepository interface {
	// ListFeedTweets 返回 viewerID 关注的作者发布的推文，附带作者、附件、点赞人
	ListFeedTweets(ctx context.Context, viewerID int64) ([]model.Tweet, error)
	WithTx(tx *gorm.DB) FeedRepository
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository { return &feedRepository{db: db} }

func (r *feedRepository) WithTx(tx *gorm.DB) FeedRepository { return &feedRepository{db: tx} }

// ListFeedTweets 拉模式：author_id IN (viewer 关注的人)，按 likes_count 降序，同分按发布先后
func (r *feedRepository) ListFeedTweets(ctx context.Context, viewerID int64) ([]model.Tweet, error) {
	db := r.db.WithContext(ctx)
	authors := db.Model(&model.FollowEdge{}).Select("following_id").Where("followers_id = ?", viewerID)

	var tweets []model.Tweet
	err := db.
		Where("author_id IN (?)", authors).
		Preload("Author").
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB { return tx.Order("media_attachments.id") }).
		Preload("Likes", func(tx *gorm.DB) *gorm.DB { return tx.Order("like_edges.id") }).
		Preload("Likes.User").
		Order("likes_count DESC").
		Order("id ASC").
		Find(&tweets).Error
	return tweets, err
}
