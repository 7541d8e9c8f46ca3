package usecase

import (
	"context"
	"net/http"
	"sort"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// AccessUsecaseは購入済みの取引と、その中でダウンロードできる写真を解決する。
type AccessUsecase struct {
	txRepo    repo.TransactionRepository
	photoRepo repo.PhotoRepository
	albumRepo repo.AlbumRepository
	storage   ObjectStorage

	privateBucket string
	signedURLTTL  time.Duration
}

func NewAccessUsecase(
	txRepo repo.TransactionRepository,
	photoRepo repo.PhotoRepository,
	albumRepo repo.AlbumRepository,
	storage ObjectStorage,
	privateBucket string,
	signedURLTTL time.Duration,
) *AccessUsecase {
	return &AccessUsecase{
		txRepo:        txRepo,
		photoRepo:     photoRepo,
		albumRepo:     albumRepo,
		storage:       storage,
		privateBucket: privateBucket,
		signedURLTTL:  signedURLTTL,
	}
}

type PurchaseOutput struct {
	TransactionID string                  `json:"transaction_id"`
	AlbumID       int64                   `json:"album_id"`
	AlbumTitle    string                  `json:"album_title"`
	AmountCents   int64                   `json:"amount_cents"`
	Status        model.TransactionStatus `json:"status"`

	//0はアルバム全体購入（旧形式）
	UnlockedCount int       `json:"unlocked_count"`
	WholeAlbum    bool      `json:"whole_album"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListPurchasesは本人の取引とゲスト参照トークンの取引を合わせて返す。
// どちらにも載る取引はIDで重複排除する。
func (u *AccessUsecase) ListPurchases(ctx context.Context, buyerID *int64, paymentRef string) ([]PurchaseOutput, error) {
	if buyerID == nil && paymentRef == "" {
		return []PurchaseOutput{}, NewHTTPError(http.StatusBadRequest, "identity or payment reference required")
	}

	seen := make(map[string]bool)
	merged := make([]model.Transaction, 0)

	if buyerID != nil {
		mine, err := u.txRepo.ListByBuyerID(ctx, *buyerID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, t := range mine {
			if !seen[t.ID] {
				seen[t.ID] = true
				merged = append(merged, t)
			}
		}
	}

	if paymentRef != "" {
		t, found, err := u.txRepo.FindByPaymentRef(ctx, paymentRef)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found && !seen[t.ID] {
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	out := make([]PurchaseOutput, 0, len(merged))
	for _, t := range merged {
		title := ""
		if a, err := u.albumRepo.FindByID(ctx, t.AlbumID); err == nil {
			title = a.Title
		}

		ids, partial := t.UnlockedIDs()
		out = append(out, PurchaseOutput{
			TransactionID: t.ID,
			AlbumID:       t.AlbumID,
			AlbumTitle:    title,
			AmountCents:   t.AmountCents,
			Status:        t.Status,
			UnlockedCount: len(ids),
			WholeAlbum:    !partial,
			CreatedAt:     t.CreatedAt,
		})
	}

	return out, nil
}

type DownloadItemOutput struct {
	PhotoID     int64  `json:"photo_id"`
	PreviewPath string `json:"preview_path"`

	//原本への期限付き署名URL。失敗した写真はURLが空でErrorが入る。
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

type DownloadsOutput struct {
	TransactionID string               `json:"transaction_id"`
	Items         []DownloadItemOutput `json:"items"`
}

// ResolveDownloadsは取引1件分のダウンロードURLを解決する。
// unlocked_photo_idsがあればその写真だけ、無ければアルバム全体。
// 1枚の署名失敗で他の写真を道連れにしない。
func (u *AccessUsecase) ResolveDownloads(ctx context.Context, buyerID *int64, paymentRef string, transactionID string) (DownloadsOutput, error) {
	if transactionID == "" {
		return DownloadsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	t, err := u.txRepo.FindByID(ctx, transactionID)
	if err == repo.ErrNotFound {
		return DownloadsOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return DownloadsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !u.mayAccess(t, buyerID, paymentRef) {
		//他人の取引は「存在しない扱い」にする
		return DownloadsOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	//振込確認前はダウンロードさせない
	if t.Status != model.TransactionStatusPaid {
		return DownloadsOutput{}, NewHTTPError(http.StatusConflict, "purchase not confirmed yet")
	}

	photos, err := u.resolvePhotos(ctx, t)
	if err != nil {
		return DownloadsOutput{}, err
	}

	items := make([]DownloadItemOutput, 0, len(photos))
	for _, p := range photos {
		item := DownloadItemOutput{
			PhotoID:     p.ID,
			PreviewPath: p.PreviewPath,
		}

		url, err := u.storage.SignedURL(ctx, u.privateBucket, p.OriginalPath, u.signedURLTTL)
		if err != nil {
			item.Error = "signed url unavailable, retry later"
		} else {
			item.URL = url
			item.ExpiresIn = int(u.signedURLTTL.Seconds())
		}

		items = append(items, item)
	}

	return DownloadsOutput{TransactionID: t.ID, Items: items}, nil
}

// 取引にアクセスできるのは購入者本人か、決済参照トークンを持つゲスト
func (u *AccessUsecase) mayAccess(t model.Transaction, buyerID *int64, paymentRef string) bool {
	if buyerID != nil && t.BuyerID != nil && *t.BuyerID == *buyerID {
		return true
	}
	if paymentRef != "" && t.PaymentRef != nil && *t.PaymentRef == paymentRef {
		return true
	}
	return false
}

func (u *AccessUsecase) resolvePhotos(ctx context.Context, t model.Transaction) ([]model.Photo, error) {
	ids, partial := t.UnlockedIDs()

	if partial {
		photos, err := u.photoRepo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//unlocked集合が正。ただし取引のアルバム外の写真は返さない。
		kept := photos[:0]
		for _, p := range photos {
			if p.AlbumID == t.AlbumID {
				kept = append(kept, p)
			}
		}
		return kept, nil
	}

	//旧形式：アルバム全体
	photos, err := u.photoRepo.ListByAlbumID(ctx, t.AlbumID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return photos, nil
}
