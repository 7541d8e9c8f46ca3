package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"app/internal/domain/model"
)

var ErrCacheMiss = errors.New("cache miss")

// カートの一時保存の約束（Redis実装はinfra/cache）
type CartStore interface {
	GetCart(ctx context.Context, key string) (*model.Cart, error)
	SetCart(ctx context.Context, key string, cart *model.Cart) error
	DeleteCart(ctx context.Context, key string) error
}

// チェックアウトセッションの一時保存の約束
type CheckoutSessionStore interface {
	GetSession(ctx context.Context, id string) (*model.CheckoutSession, error)
	SetSession(ctx context.Context, s *model.CheckoutSession) error
	DeleteSession(ctx context.Context, id string) error
}

// 決済参照ごとのワンショットラッチの約束。
// ラッチは同一ページライフサイクル内の多重到着を弾く早道でしかなく、
// 記録済みかどうかの確定判断は常にDB側で行う。
type SettlementLatch interface {
	AcquireLatch(ctx context.Context, paymentRef string) (bool, error)
	ReleaseLatch(ctx context.Context, paymentRef string) error
}

type CreatePaymentSessionInput struct {
	AlbumID         int64
	SellerID        int64
	AmountCents     int64
	SellerRoutingID string
	CommissionCents int64
	PhotoIDs        []int64
	BuyerEmail      string
}

type CreatePaymentSessionOutput struct {
	//外部決済参照（リダイレクトで戻ってくる）
	SessionID string
	//hosted paymentを描画するためのcontinuation token
	ClientSecret string
}

// hosted payment側にセッションを作る約束（Stripe実装はinfra/payment）
type PaymentGateway interface {
	CreateSession(ctx context.Context, in CreatePaymentSessionInput) (CreatePaymentSessionOutput, error)
}

// オブジェクトストレージの約束（MinIO実装はinfra/storage）
type ObjectStorage interface {
	Upload(ctx context.Context, bucket string, path string, data io.Reader, size int64, contentType string) error
	PublicURL(bucket string, path string) string
	//期限付きの署名URL。期限切れ後は再リクエストする。
	SignedURL(ctx context.Context, bucket string, path string, ttl time.Duration) (string, error)
}

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}
