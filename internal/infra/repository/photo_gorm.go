package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PhotoGormRepository struct {
	db *gorm.DB
}

// DI
func NewPhotoGormRepository(db *gorm.DB) *PhotoGormRepository {
	return &PhotoGormRepository{db: db}
}

func (r *PhotoGormRepository) Create(ctx context.Context, p model.Photo) (model.Photo, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Photo{}, err
	}
	return p, nil
}

func (r *PhotoGormRepository) FindByID(ctx context.Context, id int64) (model.Photo, error) {
	var p model.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Photo{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Photo{}, err
	}
	return p, nil
}

func (r *PhotoGormRepository) ListByAlbumID(ctx context.Context, albumID int64) ([]model.Photo, error) {
	var items []model.Photo
	err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Photo{}, err
	}
	return items, nil
}

func (r *PhotoGormRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Photo, error) {
	if len(ids) == 0 {
		return []model.Photo{}, nil
	}

	var items []model.Photo
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Photo{}, err
	}
	return items, nil
}
