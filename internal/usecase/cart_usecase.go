package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	"app/internal/pricing"
	repo "app/internal/repository"
)

// CartUsecaseはカートの業務ロジック。
// カート本体はRedis側の一時保存、価格はアルバムごとの段階価格で都度計算する。
type CartUsecase struct {
	store     CartStore
	albumRepo repo.AlbumRepository
	photoRepo repo.PhotoRepository
	tierRepo  repo.PricingTierRepository
	userRepo  repo.UserRepository
	clock     Clock
}

func NewCartUsecase(
	store CartStore,
	albumRepo repo.AlbumRepository,
	photoRepo repo.PhotoRepository,
	tierRepo repo.PricingTierRepository,
	userRepo repo.UserRepository,
	clock Clock,
) *CartUsecase {
	return &CartUsecase{
		store:     store,
		albumRepo: albumRepo,
		photoRepo: photoRepo,
		tierRepo:  tierRepo,
		userRepo:  userRepo,
		clock:     clock,
	}
}

type CartItemOutput struct {
	PhotoID     int64  `json:"photo_id"`
	PreviewPath string `json:"preview_path"`
}

// アルバム単位のグループ。支払いはこの単位で行う。
type CartGroupOutput struct {
	AlbumID    int64            `json:"album_id"`
	AlbumTitle string           `json:"album_title"`
	SellerID   int64            `json:"seller_id"`
	SellerName string           `json:"seller_name"`
	Items      []CartItemOutput `json:"items"`
	TotalCents int64            `json:"total_cents"`
}

type CartQuoteOutput struct {
	Groups          []CartGroupOutput `json:"groups"`
	GrandTotalCents int64             `json:"grand_total_cents"`
}

// AddItemは写真1枚をカートへ入れる。同じ写真の二重追加は何もしない。
func (u *CartUsecase) AddItem(ctx context.Context, cartKey string, photoID int64) (CartQuoteOutput, error) {
	if cartKey == "" {
		return CartQuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart")
	}
	if photoID <= 0 {
		return CartQuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid photo_id")
	}

	photo, err := u.photoRepo.FindByID(ctx, photoID)
	if err == repo.ErrNotFound {
		return CartQuoteOutput{}, NewHTTPError(http.StatusNotFound, "photo not found")
	}
	if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//公開アルバムのみ購入できる
	album, err := u.albumRepo.FindByID(ctx, photo.AlbumID)
	if err == repo.ErrNotFound || (err == nil && !album.IsPublished) {
		return CartQuoteOutput{}, NewHTTPError(http.StatusBadRequest, "album not available")
	}
	if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	seller, err := u.userRepo.FindByID(ctx, album.PhotographerID)
	if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.store.GetCart(ctx, cartKey)
	if errors.Is(err, ErrCacheMiss) {
		cart = &model.Cart{}
	} else if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	for _, it := range cart.Items {
		if it.PhotoID == photoID {
			//既に入っている
			return u.buildQuote(ctx, cart)
		}
	}

	cart.Items = append(cart.Items, model.CartItem{
		PhotoID:        photo.ID,
		AlbumID:        album.ID,
		AlbumTitle:     album.Title,
		SellerID:       seller.ID,
		SellerName:     seller.DisplayName,
		FlatPriceCents: album.FlatPriceCents,
		PreviewPath:    photo.PreviewPath,
	})
	cart.UpdatedAt = u.clock.Now()

	if err := u.store.SetCart(ctx, cartKey, cart); err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.buildQuote(ctx, cart)
}

// RemoveItemは写真1枚をカートから外す
func (u *CartUsecase) RemoveItem(ctx context.Context, cartKey string, photoID int64) (CartQuoteOutput, error) {
	if cartKey == "" {
		return CartQuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart")
	}

	cart, err := u.store.GetCart(ctx, cartKey)
	if errors.Is(err, ErrCacheMiss) {
		return CartQuoteOutput{Groups: []CartGroupOutput{}}, nil
	}
	if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.PhotoID != photoID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	cart.UpdatedAt = u.clock.Now()

	if err := u.store.SetCart(ctx, cartKey, cart); err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.buildQuote(ctx, cart)
}

// GetQuoteは現在のカートのグループと合計を返す
func (u *CartUsecase) GetQuote(ctx context.Context, cartKey string) (CartQuoteOutput, error) {
	if cartKey == "" {
		return CartQuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart")
	}

	cart, err := u.store.GetCart(ctx, cartKey)
	if errors.Is(err, ErrCacheMiss) {
		return CartQuoteOutput{Groups: []CartGroupOutput{}}, nil
	}
	if err != nil {
		return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.buildQuote(ctx, cart)
}

func (u *CartUsecase) Clear(ctx context.Context, cartKey string) error {
	if cartKey == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid cart")
	}
	if err := u.store.DeleteCart(ctx, cartKey); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart error")
	}
	return nil
}

// GroupByAlbumはカート明細をアルバム単位に分ける。
// グループ順は先に現れたアルバム順、グループ内は追加順を保つ。
func GroupByAlbum(items []model.CartItem) []CartGroupOutput {
	groups := make([]CartGroupOutput, 0)
	index := make(map[int64]int)

	for _, it := range items {
		i, ok := index[it.AlbumID]
		if !ok {
			i = len(groups)
			index[it.AlbumID] = i
			groups = append(groups, CartGroupOutput{
				AlbumID:    it.AlbumID,
				AlbumTitle: it.AlbumTitle,
				SellerID:   it.SellerID,
				SellerName: it.SellerName,
				Items:      []CartItemOutput{},
			})
		}

		groups[i].Items = append(groups[i].Items, CartItemOutput{
			PhotoID:     it.PhotoID,
			PreviewPath: it.PreviewPath,
		})
	}

	return groups
}

// グループごとに段階価格で合計を出し、総合計を足し上げる
func (u *CartUsecase) buildQuote(ctx context.Context, cart *model.Cart) (CartQuoteOutput, error) {
	groups := GroupByAlbum(cart.Items)

	var grand int64 = 0
	for i := range groups {
		tiers, err := u.tierRepo.ListByAlbumID(ctx, groups[i].AlbumID)
		if err != nil {
			return CartQuoteOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		flat := flatPriceOf(cart.Items, groups[i].AlbumID)
		total := pricing.ComputeTotal(int64(len(groups[i].Items)), tiers, flat)
		groups[i].TotalCents = total
		grand += total
	}

	return CartQuoteOutput{Groups: groups, GrandTotalCents: grand}, nil
}

func flatPriceOf(items []model.CartItem, albumID int64) int64 {
	for _, it := range items {
		if it.AlbumID == albumID {
			return it.FlatPriceCents
		}
	}
	return 0
}
