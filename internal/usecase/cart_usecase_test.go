package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartUsecase(store *MockCartStore, albums *MockAlbumRepo, photos *MockPhotoRepo, tiers *MockTierRepo, users *MockUserRepo) *usecase.CartUsecase {
	return usecase.NewCartUsecase(store, albums, photos, tiers, users, &stubClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)})
}

func TestGroupByAlbum_PreservesOrder(t *testing.T) {
	//2アルバムのアイテムが交互に入っている
	items := []model.CartItem{
		{PhotoID: 1, AlbumID: 10, AlbumTitle: "City Marathon"},
		{PhotoID: 2, AlbumID: 20, AlbumTitle: "Trail Run"},
		{PhotoID: 3, AlbumID: 10, AlbumTitle: "City Marathon"},
		{PhotoID: 4, AlbumID: 20, AlbumTitle: "Trail Run"},
		{PhotoID: 5, AlbumID: 10, AlbumTitle: "City Marathon"},
	}

	groups := usecase.GroupByAlbum(items)

	assert.Len(t, groups, 2)
	//グループは先に現れたアルバム順
	assert.Equal(t, int64(10), groups[0].AlbumID)
	assert.Equal(t, int64(20), groups[1].AlbumID)
	//グループ内は追加順
	assert.Equal(t, int64(1), groups[0].Items[0].PhotoID)
	assert.Equal(t, int64(3), groups[0].Items[1].PhotoID)
	assert.Equal(t, int64(5), groups[0].Items[2].PhotoID)
	assert.Equal(t, int64(2), groups[1].Items[0].PhotoID)
	assert.Equal(t, int64(4), groups[1].Items[1].PhotoID)
}

func TestCartUsecase_AddItem_UnpublishedAlbum(t *testing.T) {
	ctx := context.Background()

	store := new(MockCartStore)
	albums := new(MockAlbumRepo)
	photos := new(MockPhotoRepo)
	uc := newCartUsecase(store, albums, photos, new(MockTierRepo), new(MockUserRepo))

	photos.On("FindByID", mock.Anything, int64(7)).Return(model.Photo{ID: 7, AlbumID: 10}, nil)
	albums.On("FindByID", mock.Anything, int64(10)).Return(model.Album{ID: 10, IsPublished: false}, nil)

	_, err := uc.AddItem(ctx, "user:1", 7)
	assertHTTPStatus(t, err, http.StatusBadRequest)
	store.AssertNotCalled(t, "SetCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_DuplicateIsNoop(t *testing.T) {
	ctx := context.Background()

	store := new(MockCartStore)
	albums := new(MockAlbumRepo)
	photos := new(MockPhotoRepo)
	tiers := new(MockTierRepo)
	users := new(MockUserRepo)
	uc := newCartUsecase(store, albums, photos, tiers, users)

	photos.On("FindByID", mock.Anything, int64(7)).Return(model.Photo{ID: 7, AlbumID: 10, PreviewPath: "p.jpg"}, nil)
	albums.On("FindByID", mock.Anything, int64(10)).Return(model.Album{ID: 10, PhotographerID: 3, Title: "City Marathon", IsPublished: true, FlatPriceCents: 1000}, nil)
	users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, DisplayName: "alex"}, nil)

	existing := &model.Cart{Items: []model.CartItem{
		{PhotoID: 7, AlbumID: 10, AlbumTitle: "City Marathon", SellerID: 3, FlatPriceCents: 1000, PreviewPath: "p.jpg"},
	}}
	store.On("GetCart", mock.Anything, "user:1").Return(existing, nil)
	tiers.On("ListByAlbumID", mock.Anything, int64(10)).Return([]model.PricingTier{}, nil)

	out, err := uc.AddItem(ctx, "user:1", 7)
	assert.NoError(t, err)
	assert.Len(t, out.Groups, 1)
	assert.Len(t, out.Groups[0].Items, 1)

	//二重追加では保存しない
	store.AssertNotCalled(t, "SetCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_GetQuote_TierPricingPerAlbum(t *testing.T) {
	ctx := context.Background()

	store := new(MockCartStore)
	tiers := new(MockTierRepo)
	uc := newCartUsecase(store, new(MockAlbumRepo), new(MockPhotoRepo), tiers, new(MockUserRepo))

	cart := &model.Cart{Items: []model.CartItem{
		{PhotoID: 1, AlbumID: 10, FlatPriceCents: 1000},
		{PhotoID: 2, AlbumID: 10, FlatPriceCents: 1000},
		{PhotoID: 3, AlbumID: 10, FlatPriceCents: 1000},
		{PhotoID: 4, AlbumID: 20, FlatPriceCents: 500},
	}}
	store.On("GetCart", mock.Anything, "user:1").Return(cart, nil)

	//アルバム10は段階価格、20は段階なし（フラット）
	tiers.On("ListByAlbumID", mock.Anything, int64(10)).Return([]model.PricingTier{
		{MinQty: 1, UnitPriceCents: 1000},
		{MinQty: 3, UnitPriceCents: 800},
	}, nil)
	tiers.On("ListByAlbumID", mock.Anything, int64(20)).Return([]model.PricingTier{}, nil)

	out, err := uc.GetQuote(ctx, "user:1")
	assert.NoError(t, err)
	assert.Len(t, out.Groups, 2)
	assert.Equal(t, int64(2400), out.Groups[0].TotalCents) // 3枚 × 800
	assert.Equal(t, int64(500), out.Groups[1].TotalCents)  // 1枚 × フラット500
	assert.Equal(t, int64(2900), out.GrandTotalCents)
}

func TestCartUsecase_GetQuote_NoCart(t *testing.T) {
	store := new(MockCartStore)
	uc := newCartUsecase(store, new(MockAlbumRepo), new(MockPhotoRepo), new(MockTierRepo), new(MockUserRepo))

	store.On("GetCart", mock.Anything, "guest-token").Return(nil, usecase.ErrCacheMiss)

	out, err := uc.GetQuote(context.Background(), "guest-token")
	assert.NoError(t, err)
	assert.Empty(t, out.Groups)
	assert.Equal(t, int64(0), out.GrandTotalCents)
}

func TestCartUsecase_RemoveItem_KeepsOthers(t *testing.T) {
	ctx := context.Background()

	store := new(MockCartStore)
	tiers := new(MockTierRepo)
	uc := newCartUsecase(store, new(MockAlbumRepo), new(MockPhotoRepo), tiers, new(MockUserRepo))

	cart := &model.Cart{Items: []model.CartItem{
		{PhotoID: 1, AlbumID: 10, FlatPriceCents: 1000},
		{PhotoID: 2, AlbumID: 10, FlatPriceCents: 1000},
	}}
	store.On("GetCart", mock.Anything, "user:1").Return(cart, nil)
	store.On("SetCart", mock.Anything, "user:1", mock.Anything).Return(nil)
	tiers.On("ListByAlbumID", mock.Anything, int64(10)).Return([]model.PricingTier{}, nil)

	out, err := uc.RemoveItem(ctx, "user:1", 1)
	assert.NoError(t, err)
	assert.Len(t, out.Groups, 1)
	assert.Len(t, out.Groups[0].Items, 1)
	assert.Equal(t, int64(2), out.Groups[0].Items[0].PhotoID)
	store.AssertExpectations(t)
}
