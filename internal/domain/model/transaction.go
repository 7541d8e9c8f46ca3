package model

import (
	"encoding/json"
	"time"
)

type TransactionStatus string

const (
	//カード決済が完了している
	TransactionStatusPaid TransactionStatus = "PAID"

	//銀行振込の申告のみ。販売者の確認まで未確定。
	TransactionStatusManualPending TransactionStatus = "MANUAL_PENDING"
)

// 購入の確定記録。作成後に削除しない。
type Transaction struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	//ゲスト購入ならnull
	BuyerID *int64 `gorm:"index" json:"buyer_id"`

	SellerID int64 `gorm:"not null;index" json:"seller_id"`
	AlbumID  int64 `gorm:"not null;index" json:"album_id"`

	AmountCents     int64 `gorm:"not null" json:"amount_cents"`
	CommissionCents int64 `gorm:"not null" json:"commission_cents"`

	//外部決済参照（冪等キー）。銀行振込はnull。
	//同じ決済で2行できないことをDBのunique indexで保証する。
	PaymentRef *string `gorm:"type:varchar(255);uniqueIndex" json:"payment_ref"`

	Status TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//購入した写真IDのJSON配列。nullならアルバム全体（旧形式）。
	UnlockedPhotoIDs *string `gorm:"type:text" json:"-"`

	//振込の証憑（振込名義など）
	ProofReference string `gorm:"type:varchar(255)" json:"proof_reference,omitempty"`

	//購入者から販売者へのメッセージ
	BuyerMessage string `gorm:"type:text" json:"buyer_message,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// UnlockedPhotoIDsを[]int64に戻す。nullなら(nil, false)。
func (t *Transaction) UnlockedIDs() ([]int64, bool) {
	if t.UnlockedPhotoIDs == nil || *t.UnlockedPhotoIDs == "" {
		return nil, false
	}

	var ids []int64
	if err := json.Unmarshal([]byte(*t.UnlockedPhotoIDs), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// []int64をJSONにして保存用の*stringにする
func EncodeUnlockedIDs(ids []int64) *string {
	if len(ids) == 0 {
		return nil
	}

	b, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
