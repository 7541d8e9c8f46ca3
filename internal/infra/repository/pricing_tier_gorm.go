package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/gorm"
)

type PricingTierGormRepository struct {
	db *gorm.DB
}

// DI
func NewPricingTierGormRepository(db *gorm.DB) *PricingTierGormRepository {
	return &PricingTierGormRepository{db: db}
}

// アルバムの段階価格をまとめて置き換える
func (r *PricingTierGormRepository) ReplaceForAlbum(ctx context.Context, albumID int64, tiers []model.PricingTier) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&model.PricingTier{}).Error; err != nil {
			return err
		}

		if len(tiers) == 0 {
			return nil
		}

		for i := range tiers {
			tiers[i].ID = 0
			tiers[i].AlbumID = albumID
		}
		return tx.Create(&tiers).Error
	})
}

func (r *PricingTierGormRepository) ListByAlbumID(ctx context.Context, albumID int64) ([]model.PricingTier, error) {
	var items []model.PricingTier
	err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("min_qty asc").
		Find(&items).Error
	if err != nil {
		return []model.PricingTier{}, err
	}
	return items, nil
}
