package model

import "time"

// FollowEdge 关注关系：FollowersID 关注 FollowingID
type FollowEdge struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	FollowingID int64 `gorm:"not null;index:idx_follow_pair,unique"`
	FollowersID int64 `gorm:"not null;index:idx_follow_pair,unique;index:idx_follow_follower;check:chk_follow_not_self,following_id <> followers_id"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (following_id, followers_id)
	CreatedAt time.Time

	Following User `gorm:"foreignKey:FollowingID"`
	Follower  User `gorm:"foreignKey:FollowersID"`
}

func (FollowEdge) TableName() string { return "follow_edges" }
