package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/cache"
	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/logger"
)

// ProfileView 用户主页：关注的人与粉丝
type ProfileView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Followers []UserRef `json:"followers"`
	Following []UserRef `json:"following"`
}

// RelationshipService 关系链服务；followingID 为被关注者，followerID 为关注者
type RelationshipService interface {
	Follow(ctx context.Context, followingID, followerID int64) (Outcome, error)
	Unfollow(ctx context.Context, followingID, followerID int64) (Outcome, error)
	ProfileView(ctx context.Context, userID int64) (*ProfileView, error)
}

type relationshipService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	cache      Cache
}

func NewRelationshipService(db *gorm.DB, userRepo repository.UserRepository, followRepo repository.FollowRepository, c Cache) RelationshipService {
	if c == nil {
		c = noCache{}
	}
	return &relationshipService{db: db, userRepo: userRepo, followRepo: followRepo, cache: c}
}

func (s *relationshipService) Follow(ctx context.Context, followingID, followerID int64) (Outcome, error) {
	if followingID == followerID {
		return Done, ErrFollowSelf
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := s.followRepo.WithTx(tx)
		exists, err := follows.Exists(ctx, followingID, followerID)
		if err != nil {
			return err
		}
		if exists {
			return errOutcome{AlreadyFollowing}
		}
		if err := follows.Create(ctx, followingID, followerID); err != nil {
			// 并发关注的失败方
			if errors.Is(err, repository.ErrUniqueViolation) {
				return errOutcome{AlreadyFollowing}
			}
			return err
		}
		return nil
	})
	if o, ok := asOutcome(err); ok {
		return o, nil
	}
	if err != nil {
		return Done, translate(err, fmt.Sprintf("follow user %d", followingID))
	}

	s.invalidate(ctx, followingID, followerID)
	logger.Info("follow", zap.Int64("following_id", followingID), zap.Int64("follower_id", followerID))
	return Done, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, followingID, followerID int64) (Outcome, error) {
	if followingID == followerID {
		return Done, ErrFollowSelf
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.followRepo.WithTx(tx).Delete(ctx, followingID, followerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errOutcome{NotFollowing}
		}
		return nil
	})
	if o, ok := asOutcome(err); ok {
		return o, nil
	}
	if err != nil {
		return Done, translate(err, fmt.Sprintf("unfollow user %d", followingID))
	}

	s.invalidate(ctx, followingID, followerID)
	logger.Info("unfollow", zap.Int64("following_id", followingID), zap.Int64("follower_id", followerID))
	return Done, nil
}

func (s *relationshipService) ProfileView(ctx context.Context, userID int64) (*ProfileView, error) {
	var view ProfileView
	if s.cache.GetJSON(ctx, cache.ProfileKey(userID), &view) {
		return &view, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.userRepo.WithTx(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		follows := s.followRepo.WithTx(tx)
		following, err := follows.ListFollowing(ctx, userID)
		if err != nil {
			return err
		}
		followers, err := follows.ListFollowers(ctx, userID)
		if err != nil {
			return err
		}
		view = ProfileView{
			ID:        u.ID,
			Name:      u.Nickname,
			Following: toRefs(following),
			Followers: toRefs(followers),
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, fmt.Sprintf("user %d", userID))
	}

	s.cache.SetJSON(ctx, cache.ProfileKey(userID), view)
	return &view, nil
}

// invalidate 在提交之后清理双方主页缓存
func (s *relationshipService) invalidate(ctx context.Context, ids ...int64) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.ProfileKey(id)
	}
	s.cache.Delete(ctx, keys...)
}

func toRefs(users []model.User) []UserRef {
	res := make([]UserRef, len(users))
	for i, u := range users {
		res[i] = UserRef{ID: u.ID, Name: u.Nickname}
	}
	return res
}
