package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/logger"
)

var allowedImageExt = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// MediaService 推文附件；附件只能挂在作者本人已存在的推文上
type MediaService interface {
	Attach(ctx context.Context, tweetID, authorID int64, token, filename string, r io.Reader) (int64, error)
	// DetachAllForTweet 仅供删除推文时在同一事务内调用
	DetachAllForTweet(ctx context.Context, tx *gorm.DB, tweetID int64) (int, error)
}

type mediaService struct {
	db        *gorm.DB
	tweetRepo repository.TweetRepository
	mediaRepo repository.MediaRepository
	store     blob.Store
}

func NewMediaService(db *gorm.DB, tweetRepo repository.TweetRepository, mediaRepo repository.MediaRepository, store blob.Store) MediaService {
	return &mediaService{db: db, tweetRepo: tweetRepo, mediaRepo: mediaRepo, store: store}
}

func (s *mediaService) Attach(ctx context.Context, tweetID, authorID int64, token, filename string, r io.Reader) (int64, error) {
	name := baseName(filename)

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.tweetRepo.WithTx(tx).GetOwned(ctx, tweetID, authorID); err != nil {
			return err
		}
		if !allowedImageExt[extension(name)] {
			return ErrUnsupportedMediaType
		}
		return nil
	}); err != nil {
		return 0, translate(err, fmt.Sprintf("attach media to tweet %d", tweetID))
	}

	// 上传在事务之外写入
	key, _, err := s.store.Put(ctx, blob.Namespace(token), uuid.NewString()+"-"+name, r)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return 0, fmt.Errorf("attach media to tweet %d: %w", tweetID, ErrMediaTooLarge)
		}
		return 0, fmt.Errorf("attach media to tweet %d: %w: %v", tweetID, ErrStorageFailure, err)
	}

	m := &model.MediaAttachment{TweetID: tweetID, Filename: name, Path: key}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 写文件期间推文可能已被删除
		if _, err := s.tweetRepo.WithTx(tx).GetOwned(ctx, tweetID, authorID); err != nil {
			return err
		}
		return s.mediaRepo.WithTx(tx).Create(ctx, m)
	})
	if err != nil {
		// 行未落库时清理已写入的文件
		if rmErr := s.store.Remove(key); rmErr != nil {
			logger.Warn("orphan media blob", zap.String("key", key), zap.Error(rmErr))
		}
		return 0, translate(err, fmt.Sprintf("attach media to tweet %d", tweetID))
	}
	id := m.ID
	logger.Info("media attached", zap.Int64("media_id", id), zap.Int64("tweet_id", tweetID), zap.String("key", key))
	return id, nil
}

func (s *mediaService) DetachAllForTweet(ctx context.Context, tx *gorm.DB, tweetID int64) (int, error) {
	media := s.mediaRepo.WithTx(tx)
	items, err := media.ListByTweet(ctx, tweetID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	if _, err := media.DeleteByTweet(ctx, tweetID); err != nil {
		return 0, err
	}
	for _, m := range items {
		if err := s.store.Remove(m.Path); err != nil {
			return 0, fmt.Errorf("%w: remove %s: %v", ErrStorageFailure, m.Path, err)
		}
	}
	return len(items), nil
}

func baseName(filename string) string {
	return path.Base(strings.ReplaceAll(filename, `\`, "/"))
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
