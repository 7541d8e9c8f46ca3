package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// AlbumUsecaseはアルバムと写真の登録・公開閲覧。
// 透かし生成はスコープ外：プレビューと原本は分けてアップロードされる前提。
type AlbumUsecase struct {
	albumRepo repo.AlbumRepository
	photoRepo repo.PhotoRepository
	tierRepo  repo.PricingTierRepository
	userRepo  repo.UserRepository
	storage   ObjectStorage
	clock     Clock

	publicBucket  string
	privateBucket string
}

func NewAlbumUsecase(
	albumRepo repo.AlbumRepository,
	photoRepo repo.PhotoRepository,
	tierRepo repo.PricingTierRepository,
	userRepo repo.UserRepository,
	storage ObjectStorage,
	clock Clock,
	publicBucket string,
	privateBucket string,
) *AlbumUsecase {
	return &AlbumUsecase{
		albumRepo:     albumRepo,
		photoRepo:     photoRepo,
		tierRepo:      tierRepo,
		userRepo:      userRepo,
		storage:       storage,
		clock:         clock,
		publicBucket:  publicBucket,
		privateBucket: privateBucket,
	}
}

type TierInput struct {
	MinQty         int64 `json:"min_qty"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

type CreateAlbumInput struct {
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	FlatPriceCents int64       `json:"flat_price_cents"`
	IsPublished    bool        `json:"is_published"`
	Tiers          []TierInput `json:"tiers"`
}

type AlbumOutput struct {
	Album model.Album         `json:"album"`
	Tiers []model.PricingTier `json:"tiers"`
}

func (u *AlbumUsecase) CreateAlbum(ctx context.Context, photographerID int64, in CreateAlbumInput) (AlbumOutput, error) {
	if photographerID <= 0 {
		return AlbumOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return AlbumOutput{}, NewHTTPError(http.StatusBadRequest, "title required")
	}
	if in.FlatPriceCents < 0 {
		return AlbumOutput{}, NewHTTPError(http.StatusBadRequest, "invalid flat price")
	}

	if err := validateTiers(in.Tiers); err != nil {
		return AlbumOutput{}, err
	}

	album, err := u.albumRepo.Create(ctx, model.Album{
		PhotographerID: photographerID,
		Title:          title,
		Description:    in.Description,
		FlatPriceCents: in.FlatPriceCents,
		IsPublished:    in.IsPublished,
		CreatedAt:      u.clock.Now(),
	})
	if err != nil {
		return AlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tiers := make([]model.PricingTier, 0, len(in.Tiers))
	for _, t := range in.Tiers {
		tiers = append(tiers, model.PricingTier{
			AlbumID:        album.ID,
			MinQty:         t.MinQty,
			UnitPriceCents: t.UnitPriceCents,
		})
	}
	if err := u.tierRepo.ReplaceForAlbum(ctx, album.ID, tiers); err != nil {
		return AlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AlbumOutput{Album: album, Tiers: tiers}, nil
}

func validateTiers(tiers []TierInput) error {
	seen := make(map[int64]bool)
	for _, t := range tiers {
		if t.MinQty < 1 {
			return NewHTTPError(http.StatusBadRequest, "tier min_qty must be >= 1")
		}
		if t.UnitPriceCents < 0 {
			return NewHTTPError(http.StatusBadRequest, "tier price must be >= 0")
		}
		if seen[t.MinQty] {
			return NewHTTPError(http.StatusBadRequest, "duplicate tier min_qty")
		}
		seen[t.MinQty] = true
	}
	return nil
}

type UpdateAlbumInput struct {
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	FlatPriceCents int64       `json:"flat_price_cents"`
	IsPublished    bool        `json:"is_published"`
	Tiers          []TierInput `json:"tiers"`
}

// UpdateAlbumは自分のアルバムのメタデータと段階価格を置き換える。
// 公開フラグの切り替えもここを通る。
func (u *AlbumUsecase) UpdateAlbum(ctx context.Context, photographerID int64, albumID int64, in UpdateAlbumInput) (AlbumOutput, error) {
	if photographerID <= 0 {
		return AlbumOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return AlbumOutput{}, NewHTTPError(http.StatusBadRequest, "title required")
	}
	if in.FlatPriceCents < 0 {
		return AlbumOutput{}, NewHTTPError(http.StatusBadRequest, "invalid flat price")
	}
	if err := validateTiers(in.Tiers); err != nil {
		return AlbumOutput{}, err
	}

	album, err := u.findOwnAlbum(ctx, photographerID, albumID)
	if err != nil {
		return AlbumOutput{}, err
	}

	album.Title = title
	album.Description = in.Description
	album.FlatPriceCents = in.FlatPriceCents
	album.IsPublished = in.IsPublished

	if err := u.albumRepo.Update(ctx, album); err != nil {
		return AlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tiers := make([]model.PricingTier, 0, len(in.Tiers))
	for _, t := range in.Tiers {
		tiers = append(tiers, model.PricingTier{
			AlbumID:        album.ID,
			MinQty:         t.MinQty,
			UnitPriceCents: t.UnitPriceCents,
		})
	}
	if err := u.tierRepo.ReplaceForAlbum(ctx, album.ID, tiers); err != nil {
		return AlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AlbumOutput{Album: album, Tiers: tiers}, nil
}

// DeleteAlbumは自分のアルバムを非表示にする（ソフトデリート）。
// 取引履歴からの参照が残るため行は消さない。
func (u *AlbumUsecase) DeleteAlbum(ctx context.Context, photographerID int64, albumID int64) error {
	if photographerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := u.findOwnAlbum(ctx, photographerID, albumID); err != nil {
		return err
	}

	if err := u.albumRepo.SoftDelete(ctx, albumID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AlbumUsecase) findOwnAlbum(ctx context.Context, photographerID int64, albumID int64) (model.Album, error) {
	if albumID <= 0 {
		return model.Album{}, NewHTTPError(http.StatusBadRequest, "invalid album_id")
	}

	album, err := u.albumRepo.FindByID(ctx, albumID)
	if err == repo.ErrNotFound {
		return model.Album{}, NewHTTPError(http.StatusNotFound, "album not found")
	}
	if err != nil {
		return model.Album{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if album.PhotographerID != photographerID {
		return model.Album{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return album, nil
}

type UploadPhotoInput struct {
	AlbumID  int64
	Filename string

	//透かし入りプレビュー（公開バケットへ）
	Preview     io.Reader
	PreviewSize int64

	//原本（非公開バケットへ。署名URLでのみ配布）
	Original     io.Reader
	OriginalSize int64

	ContentType string
	BibNumber   string
}

func (u *AlbumUsecase) UploadPhoto(ctx context.Context, photographerID int64, in UploadPhotoInput) (model.Photo, error) {
	if photographerID <= 0 {
		return model.Photo{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AlbumID <= 0 {
		return model.Photo{}, NewHTTPError(http.StatusBadRequest, "invalid album_id")
	}
	if in.Preview == nil || in.Original == nil {
		return model.Photo{}, NewHTTPError(http.StatusBadRequest, "preview and original required")
	}

	album, err := u.albumRepo.FindByID(ctx, in.AlbumID)
	if err == repo.ErrNotFound {
		return model.Photo{}, NewHTTPError(http.StatusNotFound, "album not found")
	}
	if err != nil {
		return model.Photo{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//他人のアルバムには上げられない
	if album.PhotographerID != photographerID {
		return model.Photo{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	base := strings.TrimSuffix(path.Base(in.Filename), path.Ext(in.Filename))
	if base == "" || base == "." {
		base = "photo"
	}
	stamp := u.clock.Now().UnixNano()
	previewPath := fmt.Sprintf("albums/%d/%s_%d_preview.jpg", album.ID, base, stamp)
	originalPath := fmt.Sprintf("albums/%d/%s_%d.jpg", album.ID, base, stamp)

	contentType := in.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := u.storage.Upload(ctx, u.publicBucket, previewPath, in.Preview, in.PreviewSize, contentType); err != nil {
		return model.Photo{}, NewHTTPError(http.StatusInternalServerError, "upload failed")
	}
	if err := u.storage.Upload(ctx, u.privateBucket, originalPath, in.Original, in.OriginalSize, contentType); err != nil {
		return model.Photo{}, NewHTTPError(http.StatusInternalServerError, "upload failed")
	}

	photo, err := u.photoRepo.Create(ctx, model.Photo{
		AlbumID:      album.ID,
		PreviewPath:  previewPath,
		OriginalPath: originalPath,
		BibNumber:    strings.TrimSpace(in.BibNumber),
		CreatedAt:    u.clock.Now(),
	})
	if err != nil {
		return model.Photo{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return photo, nil
}

type PublicPhotoOutput struct {
	ID         int64  `json:"id"`
	PreviewURL string `json:"preview_url"`
	BibNumber  string `json:"bib_number,omitempty"`
}

type PublicAlbumOutput struct {
	ID                  int64               `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	FlatPriceCents      int64               `json:"flat_price_cents"`
	SellerID            int64               `json:"seller_id"`
	SellerName          string              `json:"seller_name"`
	BankTransferEnabled bool                `json:"bank_transfer_enabled"`
	Tiers               []model.PricingTier `json:"tiers"`
	Photos              []PublicPhotoOutput `json:"photos"`
}

// GetPublicAlbumはURLのタイトルから公開アルバムを引く（大文字小文字は区別しない）
func (u *AlbumUsecase) GetPublicAlbum(ctx context.Context, title string) (PublicAlbumOutput, error) {
	if strings.TrimSpace(title) == "" {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusBadRequest, "title required")
	}

	album, err := u.albumRepo.FindPublishedByTitle(ctx, title)
	if err == repo.ErrNotFound {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusNotFound, "album not found")
	}
	if err != nil {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	seller, err := u.userRepo.FindByID(ctx, album.PhotographerID)
	if err != nil {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tiers, err := u.tierRepo.ListByAlbumID(ctx, album.ID)
	if err != nil {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	photos, err := u.photoRepo.ListByAlbumID(ctx, album.ID)
	if err != nil {
		return PublicAlbumOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outPhotos := make([]PublicPhotoOutput, 0, len(photos))
	for _, p := range photos {
		outPhotos = append(outPhotos, PublicPhotoOutput{
			ID:         p.ID,
			PreviewURL: u.storage.PublicURL(u.publicBucket, p.PreviewPath),
			BibNumber:  p.BibNumber,
		})
	}

	return PublicAlbumOutput{
		ID:                  album.ID,
		Title:               album.Title,
		Description:         album.Description,
		FlatPriceCents:      album.FlatPriceCents,
		SellerID:            seller.ID,
		SellerName:          seller.DisplayName,
		BankTransferEnabled: seller.BankTransferEnabled,
		Tiers:               tiers,
		Photos:              outPhotos,
	}, nil
}

type PhotographerAlbumsOutput struct {
	PhotographerID int64         `json:"photographer_id"`
	DisplayName    string        `json:"display_name"`
	Albums         []model.Album `json:"albums"`
}

// ListPhotographerAlbumsは表示名からフォトグラファーの公開アルバムを引く
func (u *AlbumUsecase) ListPhotographerAlbums(ctx context.Context, displayName string) (PhotographerAlbumsOutput, error) {
	if strings.TrimSpace(displayName) == "" {
		return PhotographerAlbumsOutput{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	photographer, err := u.userRepo.FindPhotographerByDisplayName(ctx, displayName)
	if err == repo.ErrUserNotFound {
		return PhotographerAlbumsOutput{}, NewHTTPError(http.StatusNotFound, "photographer not found")
	}
	if err != nil {
		return PhotographerAlbumsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	albums, err := u.albumRepo.ListPublishedByPhotographer(ctx, photographer.ID)
	if err != nil {
		return PhotographerAlbumsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PhotographerAlbumsOutput{
		PhotographerID: photographer.ID,
		DisplayName:    photographer.DisplayName,
		Albums:         albums,
	}, nil
}
