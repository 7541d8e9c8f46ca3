package model

import "time"

// 枚数に応じた段階価格（ボリュームディスカウント）
// アルバムごとに0件以上。0件ならアルバムのFlatPriceCentsを使う。
type PricingTier struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID        int64     `gorm:"not null;index" json:"album_id"`
	MinQty         int64     `gorm:"not null" json:"min_qty"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
