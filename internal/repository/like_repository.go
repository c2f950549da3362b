package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yblog/internal/model"
)

// CounterDrift 计数与点赞记录不一致的推文
type CounterDrift struct {
	TweetID    int64 `json:"tweet_id"`
	LikesCount int64 `json:"likes_count"`
	Actual     int64 `json:"actual"`
}

type LikeRepository interface {
	Create(ctx context.Context, userID, tweetID int64) error
	Delete(ctx context.Context, userID, tweetID int64) (int64, error)
	Exists(ctx context.Context, userID, tweetID int64) (bool, error)
	CountByTweet(ctx context.Context, tweetID int64) (int64, error)
	DeleteByTweet(ctx context.Context, tweetID int64) (int64, error)
	Drift(ctx context.Context) ([]CounterDrift, error)
	WithTx(tx *gorm.DB) LikeRepository
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) WithTx(tx *gorm.DB) LikeRepository { return &likeRepository{db: tx} }

func (r *likeRepository) Create(ctx context.Context, userID, tweetID int64) error {
	l := &model.LikeEdge{UserID: userID, TweetID: tweetID}
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *likeRepository) Delete(ctx context.Context, userID, tweetID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(&model.LikeEdge{})
	return res.RowsAffected, classify(res.Error)
}

func (r *likeRepository) Exists(ctx context.Context, userID, tweetID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.LikeEdge{}).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *likeRepository) CountByTweet(ctx context.Context, tweetID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.LikeEdge{}).Where("tweet_id = ?", tweetID).Count(&cnt).Error
	return cnt, err
}

func (r *likeRepository) DeleteByTweet(ctx context.Context, tweetID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("tweet_id = ?", tweetID).Delete(&model.LikeEdge{})
	return res.RowsAffected, classify(res.Error)
}

// Drift 找出 likes_count 与 like_edges 行数不一致的推文
func (r *likeRepository) Drift(ctx context.Context) ([]CounterDrift, error) {
	var rows []CounterDrift
	err := r.db.WithContext(ctx).Raw(`
		SELECT t.id AS tweet_id, t.likes_count AS likes_count, COUNT(l.id) AS actual
		FROM tweets t
		LEFT JOIN like_edges l ON l.tweet_id = t.id
		GROUP BY t.id, t.likes_count
		HAVING t.likes_count <> COUNT(l.id)
		ORDER BY t.id
	`).Scan(&rows).Error
	return rows, err
}
