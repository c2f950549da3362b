package model

import "time"

// Tweet 推文；LikesCount 是 like_edges 的冗余计数，只能与点赞记录在同一事务内修改
type Tweet struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID   int64     `json:"author_id" gorm:"not null;index:idx_tweet_author"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	LikesCount int64     `json:"likes_count" gorm:"not null;default:0;check:chk_tweets_likes_count,likes_count >= 0"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`

	Author      User              `json:"-" gorm:"foreignKey:AuthorID"`
	Attachments []MediaAttachment `json:"-" gorm:"foreignKey:TweetID"`
	Likes       []LikeEdge        `json:"-" gorm:"foreignKey:TweetID"`
}

func (Tweet) TableName() string { return "tweets" }
