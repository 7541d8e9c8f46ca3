package model

import "time"

// カートの1明細＝写真1枚。
// グルーピングに必要なアルバム側の情報を非正規化して持つ。
type CartItem struct {
	PhotoID        int64  `json:"photo_id"`
	AlbumID        int64  `json:"album_id"`
	AlbumTitle     string `json:"album_title"`
	SellerID       int64  `json:"seller_id"`
	SellerName     string `json:"seller_name"`
	FlatPriceCents int64  `json:"flat_price_cents"`
	PreviewPath    string `json:"preview_path"`
}

// カート本体（Redis保存・TTL付き）。Itemsは追加順を保つ。
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
