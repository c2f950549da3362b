package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/repository"
)

// TweetView 信息流中的一条推文
type TweetView struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	LikesCount  int64     `json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
	Author      UserRef   `json:"author"`
	Attachments []string  `json:"attachments"`
	Likes       []UserRef `json:"likes"`
}

type FeedService interface {
	AssembleFeed(ctx context.Context, viewerID int64) ([]TweetView, error)
}

type feedService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	feedRepo repository.FeedRepository
}

func NewFeedService(db *gorm.DB, userRepo repository.UserRepository, feedRepo repository.FeedRepository) FeedService {
	return &feedService{db: db, userRepo: userRepo, feedRepo: feedRepo}
}

// AssembleFeed 只包含 viewer 关注的作者的推文，按 likes_count 降序，同分按发布先后。
// 没有内容时返回空列表。
func (s *feedService) AssembleFeed(ctx context.Context, viewerID int64) ([]TweetView, error) {
	var tweets []model.Tweet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.userRepo.WithTx(tx).Exists(ctx, viewerID)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrRecordNotFound
		}
		tweets, err = s.feedRepo.WithTx(tx).ListFeedTweets(ctx, viewerID)
		return err
	})
	if err != nil {
		return nil, translate(err, fmt.Sprintf("feed of user %d", viewerID))
	}

	views := make([]TweetView, len(tweets))
	for i, t := range tweets {
		views[i] = toTweetView(t)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].LikesCount > views[j].LikesCount })
	return views, nil
}

func toTweetView(t model.Tweet) TweetView {
	v := TweetView{
		ID:          t.ID,
		Content:     t.Content,
		LikesCount:  t.LikesCount,
		CreatedAt:   t.CreatedAt,
		Author:      UserRef{ID: t.Author.ID, Name: t.Author.Nickname},
		Attachments: make([]string, len(t.Attachments)),
		Likes:       make([]UserRef, len(t.Likes)),
	}
	for i, m := range t.Attachments {
		v.Attachments[i] = m.Path
	}
	for i, l := range t.Likes {
		v.Likes[i] = UserRef{ID: l.UserID, Name: l.User.Nickname}
	}
	return v
}
