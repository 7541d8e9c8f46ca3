package model

import (
	"time"

	"gorm.io/gorm"
)

// イベントごとの写真アルバム
type Album struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotographerID int64  `gorm:"not null;index" json:"photographer_id"`
	Title          string `gorm:"type:varchar(255);not null;index" json:"title"`
	Description    string `gorm:"type:text" json:"description"`

	//段階価格が無い場合の1枚あたりの価格（セント）
	FlatPriceCents int64 `gorm:"not null" json:"flat_price_cents"`

	IsPublished bool           `gorm:"not null;default:false" json:"is_published"`
	CoverPath   string         `gorm:"type:varchar(512)" json:"cover_path"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
