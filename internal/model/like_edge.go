package model

import "time"

// LikeEdge 点赞记录，是 Tweet.LikesCount 的事实来源
type LikeEdge struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	UserID  int64 `gorm:"not null;index:idx_like_pair,unique"`
	TweetID int64 `gorm:"not null;index:idx_like_pair,unique;index:idx_like_tweet"`
	// idx_like_pair = (user_id, tweet_id)
	CreatedAt time.Time

	User  User   `gorm:"foreignKey:UserID"`
	Tweet *Tweet `gorm:"foreignKey:TweetID"`
}

func (LikeEdge) TableName() string { return "like_edges" }
