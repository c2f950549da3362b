package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yblog/internal/model"
)

type MediaRepository interface {
	Create(ctx context.Context, m *model.MediaAttachment) error
	ListByTweet(ctx context.Context, tweetID int64) ([]model.MediaAttachment, error)
	DeleteByTweet(ctx context.Context, tweetID int64) (int64, error)
	WithTx(tx *gorm.DB) MediaRepository
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository { return &mediaRepository{db: db} }

func (r *mediaRepository) WithTx(tx *gorm.DB) MediaRepository { return &mediaRepository{db: tx} }

func (r *mediaRepository) Create(ctx context.Context, m *model.MediaAttachment) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (r *mediaRepository) ListByTweet(ctx context.Context, tweetID int64) ([]model.MediaAttachment, error) {
	var res []model.MediaAttachment
	err := r.db.WithContext(ctx).Where("tweet_id = ?", tweetID).Order("id").Find(&res).Error
	return res, err
}

func (r *mediaRepository) DeleteByTweet(ctx context.Context, tweetID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("tweet_id = ?", tweetID).Delete(&model.MediaAttachment{})
	return res.RowsAffected, classify(res.Error)
}
