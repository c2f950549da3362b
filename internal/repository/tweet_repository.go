package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yblog/internal/model"
)

type TweetRepository interface {
	Create(ctx context.Context, t *model.Tweet) error
	GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error)
	GetOwned(ctx context.Context, tweetID, authorID int64) (*model.Tweet, error)
	// AddLikes 原子地调整计数，返回受影响行数（0 表示推文不存在）
	AddLikes(ctx context.Context, tweetID, delta int64) (int64, error)
	SetLikes(ctx context.Context, tweetID, count int64) error
	Delete(ctx context.Context, tweetID int64) (int64, error)
	WithTx(tx *gorm.DB) TweetRepository
}

type tweetRepository struct {
	db *gorm.DB
}

func NewTweetRepository(db *gorm.DB) TweetRepository { return &tweetRepository{db: db} }

func (r *tweetRepository) WithTx(tx *gorm.DB) TweetRepository { return &tweetRepository{db: tx} }

func (r *tweetRepository) Create(ctx context.Context, t *model.Tweet) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (r *tweetRepository) GetByID(ctx context.Context, tweetID int64) (*model.Tweet, error) {
	var t model.Tweet
	if err := r.db.WithContext(ctx).Where("id = ?", tweetID).First(&t).Error; err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (r *tweetRepository) GetOwned(ctx context.Context, tweetID, authorID int64) (*model.Tweet, error) {
	var t model.Tweet
	if err := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", tweetID, authorID).
		First(&t).Error; err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

// AddLikes 用单条 UPDATE 修改计数；在 postgres 中该语句持有行锁直到事务结束，
// 同一推文的点赞/取消点赞因此串行化
func (r *tweetRepository) AddLikes(ctx context.Context, tweetID, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Tweet{}).
		Where("id = ?", tweetID).
		UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta))
	return res.RowsAffected, classify(res.Error)
}

func (r *tweetRepository) SetLikes(ctx context.Context, tweetID, count int64) error {
	return classify(r.db.WithContext(ctx).
		Model(&model.Tweet{}).
		Where("id = ?", tweetID).
		UpdateColumn("likes_count", count).Error)
}

func (r *tweetRepository) Delete(ctx context.Context, tweetID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", tweetID).Delete(&model.Tweet{})
	return res.RowsAffected, classify(res.Error)
}
