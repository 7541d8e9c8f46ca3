package model

import "time"

// アルバム内の1枚の写真
// PreviewPathは透かし入り（公開）、OriginalPathは原本（非公開バケット）。
type Photo struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID      int64     `gorm:"not null;index" json:"album_id"`
	PreviewPath  string    `gorm:"type:varchar(512);not null" json:"preview_path"`
	OriginalPath string    `gorm:"type:varchar(512);not null" json:"-"`
	BibNumber    string    `gorm:"type:varchar(50);index" json:"bib_number,omitempty"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
