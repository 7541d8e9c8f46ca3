package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type TransactionGormRepository struct {
	db *gorm.DB
}

// DI
func NewTransactionGormRepository(db *gorm.DB) *TransactionGormRepository {
	return &TransactionGormRepository{db: db}
}

func (r *TransactionGormRepository) Create(ctx context.Context, t model.Transaction) error {
	return r.db.WithContext(ctx).Create(&t).Error
}

func (r *TransactionGormRepository) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

func (r *TransactionGormRepository) FindByPaymentRef(ctx context.Context, ref string) (model.Transaction, bool, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).Where("payment_ref = ?", ref).First(&t).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, false, nil
	}
	if err != nil {
		return model.Transaction{}, false, err
	}
	return t, true, nil
}

func (r *TransactionGormRepository) ListByBuyerID(ctx context.Context, buyerID int64) ([]model.Transaction, error) {
	var items []model.Transaction
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Transaction{}, err
	}
	return items, nil
}

func (r *TransactionGormRepository) ListBySellerID(ctx context.Context, sellerID int64) ([]model.Transaction, error) {
	var items []model.Transaction
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Transaction{}, err
	}
	return items, nil
}

func (r *TransactionGormRepository) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus, proofReference string) error {
	updates := map[string]interface{}{"status": status}
	if proofReference != "" {
		updates["proof_reference"] = proofReference
	}

	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(updates)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
