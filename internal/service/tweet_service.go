package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/logger"
)

// TweetService 推文存储；删除推文会在同一事务内级联删除附件和点赞
type TweetService interface {
	Create(ctx context.Context, authorID int64, content string) (int64, error)
	Delete(ctx context.Context, tweetID, authorID int64) error
}

type tweetService struct {
	db        *gorm.DB
	tweetRepo repository.TweetRepository
	likeRepo  repository.LikeRepository
	media     MediaService
}

func NewTweetService(db *gorm.DB, tweetRepo repository.TweetRepository, likeRepo repository.LikeRepository, media MediaService) TweetService {
	return &tweetService{db: db, tweetRepo: tweetRepo, likeRepo: likeRepo, media: media}
}

func (s *tweetService) Create(ctx context.Context, authorID int64, content string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("tweet content: %w", ErrInvalidInput)
	}
	t := &model.Tweet{AuthorID: authorID, Content: content, CreatedAt: time.Now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tweetRepo.WithTx(tx).Create(ctx, t)
	})
	if err != nil {
		return 0, translate(err, "create tweet")
	}
	logger.Info("tweet created", zap.Int64("tweet_id", t.ID), zap.Int64("author_id", authorID))
	return t.ID, nil
}

// Delete 顺序：附件 -> 点赞 -> 推文，全部在一个事务内
func (s *tweetService) Delete(ctx context.Context, tweetID, authorID int64) error {
	var detached int
	var unliked int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tweets := s.tweetRepo.WithTx(tx)
		if _, err := tweets.GetOwned(ctx, tweetID, authorID); err != nil {
			return err
		}
		n, err := s.media.DetachAllForTweet(ctx, tx, tweetID)
		if err != nil {
			return err
		}
		detached = n
		if unliked, err = s.likeRepo.WithTx(tx).DeleteByTweet(ctx, tweetID); err != nil {
			return err
		}
		_, err = tweets.Delete(ctx, tweetID)
		return err
	})
	if err != nil {
		return translate(err, fmt.Sprintf("delete tweet %d", tweetID))
	}
	logger.Info("tweet deleted",
		zap.Int64("tweet_id", tweetID), zap.Int("attachments", detached), zap.Int64("likes", unliked))
	return nil
}
