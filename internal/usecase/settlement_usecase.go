package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// SettlementUsecaseはhosted paymentからのリダイレクト戻りを精算する。
// 同じ決済参照でTransactionが2行できないことが責務。
type SettlementUsecase struct {
	latch SettlementLatch
	tx    repo.TransactionManager
	carts CartStore
	idGen IDGenerator
	clock Clock

	commissionRate float64
}

func NewSettlementUsecase(
	latch SettlementLatch,
	tx repo.TransactionManager,
	carts CartStore,
	idGen IDGenerator,
	clock Clock,
	commissionRate float64,
) *SettlementUsecase {
	return &SettlementUsecase{
		latch:          latch,
		tx:             tx,
		carts:          carts,
		idGen:          idGen,
		clock:          clock,
		commissionRate: commissionRate,
	}
}

// リダイレクトのクエリから組み立てる入力
type SettleInput struct {
	Success     bool
	PaymentRef  string
	AlbumID     int64
	SellerID    int64
	AmountCents int64
	PhotoIDs    []int64

	//ログイン済みならセット。ゲストはnil。
	BuyerID *int64

	//精算後に空にするカート
	CartKey string
}

type SettleOutput struct {
	PaymentRef      string `json:"payment_ref"`
	TransactionID   string `json:"transaction_id,omitempty"`
	AlreadyRecorded bool   `json:"already_recorded"`
}

// Settleは1回のリダイレクト到着につき最大1回の記録を行う。
// 流れ：ラッチ→冪等チェック→挿入。挿入の一意制約衝突は「記録済み」として扱う。
func (u *SettlementUsecase) Settle(ctx context.Context, in SettleInput) (SettleOutput, error) {
	if !in.Success {
		return SettleOutput{}, NewHTTPError(http.StatusBadRequest, "payment not successful")
	}
	if in.PaymentRef == "" {
		return SettleOutput{}, NewHTTPError(http.StatusBadRequest, "missing payment reference")
	}
	if in.AlbumID <= 0 || in.SellerID <= 0 || in.AmountCents <= 0 {
		return SettleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid settlement parameters")
	}

	//同一ページライフサイクル内の多重到着を弾く早道。守りの本体はDBの一意制約。
	acquired, err := u.latch.AcquireLatch(ctx, in.PaymentRef)
	if err == nil && !acquired {
		//ラッチ済みでも記録済みとは言い切れない。先行の到着が挿入に失敗した
		//可能性があるため、DBで確かめて無ければ通常フローで記録し直す。
		existing, found, ferr := u.findRecorded(ctx, in.PaymentRef)
		if ferr == nil && found {
			u.clearCart(ctx, in.CartKey)
			return SettleOutput{
				PaymentRef:      in.PaymentRef,
				TransactionID:   existing.ID,
				AlreadyRecorded: true,
			}, nil
		}
	}
	//ラッチ障害は致命ではない。DB側の冪等チェックへ進む。

	var out SettleOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//冪等チェック：同じ決済参照の記録が既にあるか
		existing, found, err := r.Transactions().FindByPaymentRef(ctx, in.PaymentRef)
		if err != nil {
			return u.recordingError(in.PaymentRef)
		}
		if found {
			out = SettleOutput{
				PaymentRef:      in.PaymentRef,
				TransactionID:   existing.ID,
				AlreadyRecorded: true,
			}
			return nil
		}

		ref := in.PaymentRef
		t := model.Transaction{
			ID:               u.idGen.NewID(),
			BuyerID:          in.BuyerID,
			SellerID:         in.SellerID,
			AlbumID:          in.AlbumID,
			AmountCents:      in.AmountCents,
			CommissionCents:  Commission(in.AmountCents, u.commissionRate),
			PaymentRef:       &ref,
			Status:           model.TransactionStatusPaid,
			UnlockedPhotoIDs: model.EncodeUnlockedIDs(in.PhotoIDs),
			CreatedAt:        u.clock.Now(),
		}

		if err := r.Transactions().Create(ctx, t); err != nil {
			//payment_refのunique index衝突（webhook等との競合）はもう一度引いて同じ結果を返す
			ex2, found2, err2 := r.Transactions().FindByPaymentRef(ctx, in.PaymentRef)
			if err2 == nil && found2 {
				out = SettleOutput{
					PaymentRef:      in.PaymentRef,
					TransactionID:   ex2.ID,
					AlreadyRecorded: true,
				}
				return nil
			}
			//課金は成立している。参照付きでエスカレーションする。
			return u.recordingError(in.PaymentRef)
		}

		out = SettleOutput{
			PaymentRef:    in.PaymentRef,
			TransactionID: t.ID,
		}
		return nil
	})

	if err != nil {
		//記録できなかった到着はラッチを解放して、利用者の再訪を再試行にする
		_ = u.latch.ReleaseLatch(ctx, in.PaymentRef)
		return SettleOutput{}, err
	}

	//結果にかかわらずカートは空にする
	u.clearCart(ctx, in.CartKey)

	return out, nil
}

func (u *SettlementUsecase) findRecorded(ctx context.Context, ref string) (model.Transaction, bool, error) {
	var t model.Transaction
	var found bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		t, found, err = r.Transactions().FindByPaymentRef(ctx, ref)
		return err
	})
	return t, found, err
}

// 記録エラーは握りつぶさない。サポート照会用に決済参照を必ず出す。
func (u *SettlementUsecase) recordingError(ref string) error {
	return NewHTTPError(
		http.StatusInternalServerError,
		fmt.Sprintf("failed to record payment %s: contact support with this reference", ref),
	)
}

func (u *SettlementUsecase) clearCart(ctx context.Context, cartKey string) {
	if cartKey == "" {
		return
	}
	//失敗しても精算結果には影響させない
	_ = u.carts.DeleteCart(ctx, cartKey)
}

type SaleOutput struct {
	TransactionID   string                  `json:"transaction_id"`
	AlbumID         int64                   `json:"album_id"`
	AlbumTitle      string                  `json:"album_title"`
	AmountCents     int64                   `json:"amount_cents"`
	CommissionCents int64                   `json:"commission_cents"`
	Status          model.TransactionStatus `json:"status"`
	PaymentRef      string                  `json:"payment_ref,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ListSalesは販売者自身の取引一覧。未確認の銀行振込もここに並ぶ。
func (u *SettlementUsecase) ListSales(ctx context.Context, sellerID int64) ([]SaleOutput, error) {
	if sellerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out []SaleOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		sales, err := r.Transactions().ListBySellerID(ctx, sellerID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		titles := make(map[int64]string)
		out = make([]SaleOutput, 0, len(sales))
		for _, t := range sales {
			title, ok := titles[t.AlbumID]
			if !ok {
				if a, err := r.Albums().FindByID(ctx, t.AlbumID); err == nil {
					title = a.Title
				}
				titles[t.AlbumID] = title
			}

			s := SaleOutput{
				TransactionID:   t.ID,
				AlbumID:         t.AlbumID,
				AlbumTitle:      title,
				AmountCents:     t.AmountCents,
				CommissionCents: t.CommissionCents,
				Status:          t.Status,
				CreatedAt:       t.CreatedAt,
			}
			if t.PaymentRef != nil {
				s.PaymentRef = *t.PaymentRef
			}
			out = append(out, s)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmManualTransferは販売者による銀行振込の確認。
// MANUAL_PENDING→PAID相当の確定。確認まではダウンロード不可。
func (u *SettlementUsecase) ConfirmManualTransfer(ctx context.Context, sellerID int64, transactionID string, proofReference string) (model.Transaction, error) {
	if sellerID <= 0 {
		return model.Transaction{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if transactionID == "" {
		return model.Transaction{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var confirmed model.Transaction

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transactions().FindByID(ctx, transactionID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の取引は「存在しない扱い」にする
		if t.SellerID != sellerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if t.Status != model.TransactionStatusManualPending {
			return NewHTTPError(http.StatusConflict, "not a pending transfer")
		}

		if err := r.Transactions().UpdateStatus(ctx, t.ID, model.TransactionStatusPaid, proofReference); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		t.Status = model.TransactionStatusPaid
		if proofReference != "" {
			t.ProofReference = proofReference
		}
		confirmed = t
		return nil
	})

	if err != nil {
		return model.Transaction{}, err
	}
	return confirmed, nil
}
