package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/logger"
)

// EngagementService 点赞账本：like_edges 与 tweets.likes_count 必须在同一事务内一起变更
type EngagementService interface {
	Like(ctx context.Context, userID, tweetID int64) (Outcome, error)
	Unlike(ctx context.Context, userID, tweetID int64) (Outcome, error)
	AuditCounters(ctx context.Context) ([]repository.CounterDrift, error)
	RepairCounters(ctx context.Context) (int64, error)
}

type engagementService struct {
	db        *gorm.DB
	tweetRepo repository.TweetRepository
	likeRepo  repository.LikeRepository
}

func NewEngagementService(db *gorm.DB, tweetRepo repository.TweetRepository, likeRepo repository.LikeRepository) EngagementService {
	return &engagementService{db: db, tweetRepo: tweetRepo, likeRepo: likeRepo}
}

func (s *engagementService) Like(ctx context.Context, userID, tweetID int64) (Outcome, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := s.likeRepo.WithTx(tx)
		exists, err := likes.Exists(ctx, userID, tweetID)
		if err != nil {
			return err
		}
		if exists {
			return errOutcome{AlreadyLiked}
		}
		n, err := s.tweetRepo.WithTx(tx).AddLikes(ctx, tweetID, 1)
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrRecordNotFound
		}
		if err := likes.Create(ctx, userID, tweetID); err != nil {
			// 并发点赞的失败方：回滚计数
			if errors.Is(err, repository.ErrUniqueViolation) {
				return errOutcome{AlreadyLiked}
			}
			return err
		}
		return nil
	})
	if o, ok := asOutcome(err); ok {
		return o, nil
	}
	if err != nil {
		return Done, translate(err, fmt.Sprintf("like tweet %d", tweetID))
	}
	logger.Debug("like", zap.Int64("user_id", userID), zap.Int64("tweet_id", tweetID))
	return Done, nil
}

func (s *engagementService) Unlike(ctx context.Context, userID, tweetID int64) (Outcome, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先删点赞记录：并发取消点赞在该行上串行，失败方删除 0 行，不会再扣减计数
		deleted, err := s.likeRepo.WithTx(tx).Delete(ctx, userID, tweetID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return errOutcome{NoLikeToRemove}
		}
		n, err := s.tweetRepo.WithTx(tx).AddLikes(ctx, tweetID, -1)
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrRecordNotFound
		}
		return nil
	})
	if o, ok := asOutcome(err); ok {
		return o, nil
	}
	if err != nil {
		return Done, translate(err, fmt.Sprintf("unlike tweet %d", tweetID))
	}
	logger.Debug("unlike", zap.Int64("user_id", userID), zap.Int64("tweet_id", tweetID))
	return Done, nil
}

// AuditCounters 列出 likes_count 与点赞记录不一致的推文；正常情况下为空
func (s *engagementService) AuditCounters(ctx context.Context) ([]repository.CounterDrift, error) {
	return s.likeRepo.Drift(ctx)
}

// RepairCounters 以 like_edges 为准重写漂移的计数，返回修复的推文数
func (s *engagementService) RepairCounters(ctx context.Context) (int64, error) {
	var fixed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := s.likeRepo.WithTx(tx)
		tweets := s.tweetRepo.WithTx(tx)
		drift, err := likes.Drift(ctx)
		if err != nil {
			return err
		}
		for _, d := range drift {
			// +0 先拿到行锁，再按账本重新计数
			if _, err := tweets.AddLikes(ctx, d.TweetID, 0); err != nil {
				return err
			}
			actual, err := likes.CountByTweet(ctx, d.TweetID)
			if err != nil {
				return err
			}
			if err := tweets.SetLikes(ctx, d.TweetID, actual); err != nil {
				return err
			}
			logger.Warn("likes counter repaired",
				zap.Int64("tweet_id", d.TweetID), zap.Int64("was", d.LikesCount), zap.Int64("now", actual))
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("repair counters: %w", err)
	}
	return fixed, nil
}
