package model

import "time"

type CheckoutStep string

const (
	CheckoutStepIdentity CheckoutStep = "IDENTITY"
	CheckoutStepMethod   CheckoutStep = "METHOD"
	CheckoutStepFinish   CheckoutStep = "FINISH"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// チェックアウト中だけ存在するセッション（Redis保存・TTL付き）。
// 1アルバム分の購入スナップショットを持つ。
type CheckoutSession struct {
	ID   string       `json:"id"`
	Step CheckoutStep `json:"step"`

	//購入対象のスナップショット
	AlbumID     int64   `json:"album_id"`
	SellerID    int64   `json:"seller_id"`
	PhotoIDs    []int64 `json:"photo_ids"`
	AmountCents int64   `json:"amount_cents"`

	//Identityステップの結果
	BuyerID    *int64 `json:"buyer_id"`
	BuyerEmail string `json:"buyer_email"`

	//Methodステップの結果
	Method PaymentMethod `json:"method,omitempty"`

	//カード決済のcontinuation token（hosted paymentのclient secret）
	ClientSecret string `json:"client_secret,omitempty"`

	//銀行振込のFinishで表示する振込先案内
	PayoutInstructions string `json:"payout_instructions,omitempty"`

	//カート特定用（ゲストはカートトークン、ログイン済みはuser:<id>）
	CartKey string `json:"cart_key"`

	CreatedAt time.Time `json:"created_at"`
}
