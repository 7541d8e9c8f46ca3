package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type AlbumGormRepository struct {
	db *gorm.DB
}

// DI
func NewAlbumGormRepository(db *gorm.DB) *AlbumGormRepository {
	return &AlbumGormRepository{db: db}
}

func (r *AlbumGormRepository) Create(ctx context.Context, a model.Album) (model.Album, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Album{}, err
	}
	return a, nil
}

func (r *AlbumGormRepository) FindByID(ctx context.Context, id int64) (model.Album, error) {
	var a model.Album
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Album{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Album{}, err
	}
	return a, nil
}

// URLのタイトルは大文字小文字を区別しない
func (r *AlbumGormRepository) FindPublishedByTitle(ctx context.Context, title string) (model.Album, error) {
	var a model.Album
	err := r.db.WithContext(ctx).
		Where("lower(title) = lower(?) AND is_published = ?", title, true).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Album{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Album{}, err
	}
	return a, nil
}

func (r *AlbumGormRepository) ListPublishedByPhotographer(ctx context.Context, photographerID int64) ([]model.Album, error) {
	var items []model.Album
	err := r.db.WithContext(ctx).
		Where("photographer_id = ? AND is_published = ?", photographerID, true).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Album{}, err
	}
	return items, nil
}

func (r *AlbumGormRepository) Update(ctx context.Context, a model.Album) error {
	res := r.db.WithContext(ctx).Model(&model.Album{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"title":            a.Title,
			"description":      a.Description,
			"flat_price_cents": a.FlatPriceCents,
			"is_published":     a.IsPublished,
			"cover_path":       a.CoverPath,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AlbumGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Album{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
