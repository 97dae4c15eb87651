package entity

import (
	"time"
)

// User 用户账号
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Name      string     `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Email     string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password  string     `json:"-" gorm:"size:255;not null"`
	Role      string     `json:"role" gorm:"size:32;not null"`
	Position  *string    `json:"position" gorm:"size:64"`
	Address   string     `json:"address" gorm:"size:500"`
	BirthDate *time.Time `json:"birth_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "mfg_users"
}
