package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;not null"`
	AvatarURL *string   `json:"avatarUrl" gorm:"size:1024"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (User) TableName() string { return "users" }

type NewUser struct {
	Username  string
	Password  string
	Email     string
	AvatarURL *string
}

// UserClaims is the payload of bearer tokens accepted by the identity middleware.
type UserClaims struct {
	jwt.StandardClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
}
