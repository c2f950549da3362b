package model

import "time"

// User 用户；Token 为不透明凭证，只做查找，不参与序列化
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(30);not null"`
	Nickname  string    `json:"nickname" gorm:"type:varchar(15);not null;uniqueIndex:ux_users_nickname"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Token     string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_token"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
