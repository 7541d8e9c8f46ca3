package repository

import (
	"context"

	"app/internal/domain/model"
)

type TransactionRepository interface {
	Create(ctx context.Context, t model.Transaction) error
	FindByID(ctx context.Context, id string) (model.Transaction, error)

	//外部決済参照での検索（同じ参照なら同じ結果を返す）
	FindByPaymentRef(ctx context.Context, ref string) (model.Transaction, bool, error)

	ListByBuyerID(ctx context.Context, buyerID int64) ([]model.Transaction, error)
	ListBySellerID(ctx context.Context, sellerID int64) ([]model.Transaction, error)

	//銀行振込の販売者確認：MANUAL_PENDING→PAID
	UpdateStatus(ctx context.Context, id string, status model.TransactionStatus, proofReference string) error
}
