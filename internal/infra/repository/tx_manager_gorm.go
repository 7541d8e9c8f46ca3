package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users        repo.UserRepository
	albums       repo.AlbumRepository
	photos       repo.PhotoRepository
	pricingTiers repo.PricingTierRepository
	transactions repo.TransactionRepository
}

func (r *txReposGorm) Users() repo.UserRepository               { return r.users }
func (r *txReposGorm) Albums() repo.AlbumRepository             { return r.albums }
func (r *txReposGorm) Photos() repo.PhotoRepository             { return r.photos }
func (r *txReposGorm) PricingTiers() repo.PricingTierRepository { return r.pricingTiers }
func (r *txReposGorm) Transactions() repo.TransactionRepository { return r.transactions }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			users:        NewUserGormRepository(tx),
			albums:       NewAlbumGormRepository(tx),
			photos:       NewPhotoGormRepository(tx),
			pricingTiers: NewPricingTierGormRepository(tx),
			transactions: NewTransactionGormRepository(tx),
		}
		return fn(r)
	})
}
