package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yblog/internal/model"
)

// FollowRepository 关注关系仓储；followingID 为被关注者，followerID 为关注者
type FollowRepository interface {
	Create(ctx context.Context, followingID, followerID int64) error
	Delete(ctx context.Context, followingID, followerID int64) (int64, error)
	Exists(ctx context.Context, followingID, followerID int64) (bool, error)
	ListFollowing(ctx context.Context, userID int64) ([]model.User, error)
	ListFollowers(ctx context.Context, userID int64) ([]model.User, error)
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	WithTx(tx *gorm.DB) FollowRepository
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository { return &followRepository{db: tx} }

// Create 依赖 idx_follow_pair 唯一键；并发重复关注返回 ErrUniqueViolation
func (r *followRepository) Create(ctx context.Context, followingID, followerID int64) error {
	f := &model.FollowEdge{FollowingID: followingID, FollowersID: followerID}
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

func (r *followRepository) Delete(ctx context.Context, followingID, followerID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("following_id = ? AND followers_id = ?", followingID, followerID).
		Delete(&model.FollowEdge{})
	return res.RowsAffected, classify(res.Error)
}

func (r *followRepository) Exists(ctx context.Context, followingID, followerID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("following_id = ? AND followers_id = ?", followingID, followerID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ListFollowing 返回 userID 关注的人，按关注先后排序
func (r *followRepository) ListFollowing(ctx context.Context, userID int64) ([]model.User, error) {
	var res []model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.*").
		Joins("JOIN follow_edges ON follow_edges.following_id = users.id").
		Where("follow_edges.followers_id = ?", userID).
		Order("follow_edges.id").
		Find(&res).Error
	return res, err
}

// ListFollowers 返回关注 userID 的人
func (r *followRepository) ListFollowers(ctx context.Context, userID int64) ([]model.User, error) {
	var res []model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.*").
		Joins("JOIN follow_edges ON follow_edges.followers_id = users.id").
		Where("follow_edges.following_id = ?", userID).
		Order("follow_edges.id").
		Find(&res).Error
	return res, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("followers_id = ?", userID).
		Order("id").
		Pluck("following_id", &ids).Error
	return ids, err
}
