package model

import "time"

// MediaAttachment 推文附件；Path 是 blob 存储中的 key
type MediaAttachment struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TweetID   int64     `json:"tweet_id" gorm:"not null;index:idx_media_tweet"`
	Filename  string    `json:"filename" gorm:"type:varchar(255);not null"`
	Path      string    `json:"path" gorm:"type:varchar(512);not null"`
	CreatedAt time.Time `json:"created_at"`

	Tweet *Tweet `json:"-" gorm:"foreignKey:TweetID"`
}

func (MediaAttachment) TableName() string { return "media_attachments" }
