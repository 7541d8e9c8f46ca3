package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// アルバムの永続化（保存・取得）だけを約束。
type AlbumRepository interface {
	Create(ctx context.Context, a model.Album) (model.Album, error)
	FindByID(ctx context.Context, id int64) (model.Album, error)
	//URLのタイトルから公開済みアルバムを引く（大文字小文字は区別しない）
	FindPublishedByTitle(ctx context.Context, title string) (model.Album, error)
	ListPublishedByPhotographer(ctx context.Context, photographerID int64) ([]model.Album, error)
	Update(ctx context.Context, a model.Album) error
	SoftDelete(ctx context.Context, id int64) error
}

type PhotoRepository interface {
	Create(ctx context.Context, p model.Photo) (model.Photo, error)
	FindByID(ctx context.Context, id int64) (model.Photo, error)
	ListByAlbumID(ctx context.Context, albumID int64) ([]model.Photo, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Photo, error)
}

type PricingTierRepository interface {
	//アルバムの段階価格を置き換える（作成時に一括投入）
	ReplaceForAlbum(ctx context.Context, albumID int64, tiers []model.PricingTier) error
	ListByAlbumID(ctx context.Context, albumID int64) ([]model.PricingTier, error)
}
