package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"app/internal/domain/model"
	"app/internal/pricing"
	repo "app/internal/repository"
	auth "app/internal/usecase/auth_usecase"
)

// Identityステップの結果。トークンはゲストがその場でログイン/登録した時に返す。
type IdentityResult struct {
	UserID      int64
	Email       string
	AccessToken string
	ExpiresIn   int
}

// チェックアウト内の認証アクションの約束。
// 実体はauth usecaseを包んだアダプタ（cmd/apiで組み立てる）。
type IdentityAuthenticator interface {
	Login(ctx context.Context, email string, password string) (IdentityResult, error)
	Signup(ctx context.Context, name string, email string, password string) (IdentityResult, error)
}

// CheckoutUsecaseはIdentity→Method→Finishの直線的な状態遷移を持つ。
// カード決済ではTransactionを作らない（作るのは精算側）。
// 銀行振込はFinishで直接MANUAL_PENDINGのTransactionを作る。
type CheckoutUsecase struct {
	sessions  CheckoutSessionStore
	carts     CartStore
	albumRepo repo.AlbumRepository
	tierRepo  repo.PricingTierRepository
	userRepo  repo.UserRepository
	txRepo    repo.TransactionRepository
	gateway   PaymentGateway
	authn     IdentityAuthenticator
	idGen     IDGenerator
	clock     Clock

	//プラットフォーム手数料率（0.10 = 10%）
	commissionRate float64
}

func NewCheckoutUsecase(
	sessions CheckoutSessionStore,
	carts CartStore,
	albumRepo repo.AlbumRepository,
	tierRepo repo.PricingTierRepository,
	userRepo repo.UserRepository,
	txRepo repo.TransactionRepository,
	gateway PaymentGateway,
	authn IdentityAuthenticator,
	idGen IDGenerator,
	clock Clock,
	commissionRate float64,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		sessions:       sessions,
		carts:          carts,
		albumRepo:      albumRepo,
		tierRepo:       tierRepo,
		userRepo:       userRepo,
		txRepo:         txRepo,
		gateway:        gateway,
		authn:          authn,
		idGen:          idGen,
		clock:          clock,
		commissionRate: commissionRate,
	}
}

type StartCheckoutInput struct {
	CartKey string
	AlbumID int64
	//ログイン済みならセットされる（Identityを飛ばしてMethodから始める）
	BuyerID    *int64
	BuyerEmail string
}

type CheckoutSessionOutput struct {
	ID          string             `json:"id"`
	Step        model.CheckoutStep `json:"step"`
	AlbumID     int64              `json:"album_id"`
	PhotoCount  int                `json:"photo_count"`
	AmountCents int64              `json:"amount_cents"`

	Method model.PaymentMethod `json:"method,omitempty"`

	//カード：hosted paymentの描画に使う
	ClientSecret string `json:"client_secret,omitempty"`

	//銀行振込：Finishで表示する振込先案内
	PayoutInstructions string `json:"payout_instructions,omitempty"`

	//販売者が銀行振込を受け付けるか（Methodの選択肢制御）
	BankTransferEnabled bool `json:"bank_transfer_enabled"`

	//その場でログイン/登録した場合のみ
	AccessToken string `json:"access_token,omitempty"`
}

// Startはカートの1アルバム分をスナップショットしてセッションを作る
func (u *CheckoutUsecase) Start(ctx context.Context, in StartCheckoutInput) (CheckoutSessionOutput, error) {
	if in.CartKey == "" {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart")
	}
	if in.AlbumID <= 0 {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid album_id")
	}

	cart, err := u.carts.GetCart(ctx, in.CartKey)
	if errors.Is(err, ErrCacheMiss) {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	//対象アルバムの明細だけを対象にする
	photoIDs := make([]int64, 0, len(cart.Items))
	var flat int64 = 0
	for _, it := range cart.Items {
		if it.AlbumID == in.AlbumID {
			photoIDs = append(photoIDs, it.PhotoID)
			flat = it.FlatPriceCents
		}
	}
	if len(photoIDs) == 0 {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	album, err := u.albumRepo.FindByID(ctx, in.AlbumID)
	if err == repo.ErrNotFound {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusNotFound, "album not found")
	}
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tiers, err := u.tierRepo.ListByAlbumID(ctx, in.AlbumID)
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	amount := pricing.ComputeTotal(int64(len(photoIDs)), tiers, flat)

	step := model.CheckoutStepIdentity
	buyerEmail := in.BuyerEmail
	if in.BuyerID != nil {
		//ログイン済みはIdentityを通過済み扱い
		step = model.CheckoutStepMethod
		if buyerEmail == "" {
			if buyer, err := u.userRepo.FindByID(ctx, *in.BuyerID); err == nil {
				buyerEmail = buyer.Email
			}
		}
	}

	s := &model.CheckoutSession{
		ID:          u.idGen.NewID(),
		Step:        step,
		AlbumID:     album.ID,
		SellerID:    album.PhotographerID,
		PhotoIDs:    photoIDs,
		AmountCents: amount,
		BuyerID:     in.BuyerID,
		BuyerEmail:  buyerEmail,
		CartKey:     in.CartKey,
		CreatedAt:   u.clock.Now(),
	}

	if err := u.sessions.SetSession(ctx, s); err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	return u.buildOutput(ctx, s, "")
}

type SubmitIdentityInput struct {
	SessionID string
	//login | signup
	Mode     string
	Name     string
	Email    string
	Password string
}

// SubmitIdentityはIdentityステップ。失敗時はステップを進めない。
func (u *CheckoutUsecase) SubmitIdentity(ctx context.Context, in SubmitIdentityInput) (CheckoutSessionOutput, error) {
	s, err := u.loadSession(ctx, in.SessionID)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}
	if s.Step != model.CheckoutStepIdentity {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "not on identity step")
	}

	var result IdentityResult
	switch in.Mode {
	case "login":
		result, err = u.authn.Login(ctx, in.Email, in.Password)
	case "signup":
		result, err = u.authn.Signup(ctx, in.Name, in.Email, in.Password)
	default:
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid mode")
	}

	if err != nil {
		//認証エラーはそのまま見せる。ステップは進めない。
		return CheckoutSessionOutput{}, mapAuthError(err)
	}

	s.BuyerID = &result.UserID
	s.BuyerEmail = result.Email
	s.Step = model.CheckoutStepMethod

	if err := u.sessions.SetSession(ctx, s); err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	return u.buildOutput(ctx, s, result.AccessToken)
}

type SelectMethodInput struct {
	SessionID string
	Method    model.PaymentMethod
}

// SelectMethodはMethodステップ。
// カードは外部セッション作成に成功してからFinishへ進む。失敗時はMethodに留まる。
func (u *CheckoutUsecase) SelectMethod(ctx context.Context, in SelectMethodInput) (CheckoutSessionOutput, error) {
	s, err := u.loadSession(ctx, in.SessionID)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}
	if s.Step != model.CheckoutStepMethod {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "not on method step")
	}

	seller, err := u.userRepo.FindByID(ctx, s.SellerID)
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	switch in.Method {
	case model.PaymentMethodBankTransfer:
		if !seller.BankTransferEnabled {
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "bank transfer not available")
		}
		s.Method = model.PaymentMethodBankTransfer
		s.PayoutInstructions = seller.PayoutInstructions
		s.Step = model.CheckoutStepFinish

	case model.PaymentMethodCard:
		if seller.StripeAccountID == "" {
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "seller has no payment routing configured")
		}

		out, err := u.gateway.CreateSession(ctx, CreatePaymentSessionInput{
			AlbumID:         s.AlbumID,
			SellerID:        s.SellerID,
			AmountCents:     s.AmountCents,
			SellerRoutingID: seller.StripeAccountID,
			CommissionCents: Commission(s.AmountCents, u.commissionRate),
			PhotoIDs:        s.PhotoIDs,
			BuyerEmail:      s.BuyerEmail,
		})
		if err != nil || out.ClientSecret == "" {
			//トークンが取れなければMethodに留まる
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadGateway, "payment session failed")
		}

		s.Method = model.PaymentMethodCard
		s.ClientSecret = out.ClientSecret
		s.Step = model.CheckoutStepFinish

	default:
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid method")
	}

	if err := u.sessions.SetSession(ctx, s); err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	return u.buildOutput(ctx, s, "")
}

type ConfirmTransferInput struct {
	SessionID string
	//「振り込みました」のチェック。trueでなければ確定できない。
	Acknowledged bool
	Message      string
}

type ConfirmTransferOutput struct {
	TransactionID string                  `json:"transaction_id"`
	Status        model.TransactionStatus `json:"status"`
}

// ConfirmTransferは銀行振込の確定。MANUAL_PENDINGのTransactionを直接作る。
func (u *CheckoutUsecase) ConfirmTransfer(ctx context.Context, in ConfirmTransferInput) (ConfirmTransferOutput, error) {
	s, err := u.loadSession(ctx, in.SessionID)
	if err != nil {
		return ConfirmTransferOutput{}, err
	}
	if s.Step != model.CheckoutStepFinish || s.Method != model.PaymentMethodBankTransfer {
		return ConfirmTransferOutput{}, NewHTTPError(http.StatusConflict, "not on bank transfer finish step")
	}
	if !in.Acknowledged {
		return ConfirmTransferOutput{}, NewHTTPError(http.StatusBadRequest, "transfer not acknowledged")
	}

	t := model.Transaction{
		ID:               u.idGen.NewID(),
		BuyerID:          s.BuyerID,
		SellerID:         s.SellerID,
		AlbumID:          s.AlbumID,
		AmountCents:      s.AmountCents,
		CommissionCents:  Commission(s.AmountCents, u.commissionRate),
		PaymentRef:       nil, // 銀行振込に外部決済参照は無い
		Status:           model.TransactionStatusManualPending,
		UnlockedPhotoIDs: model.EncodeUnlockedIDs(s.PhotoIDs),
		BuyerMessage:     strings.TrimSpace(in.Message),
		CreatedAt:        u.clock.Now(),
	}

	if err := u.txRepo.Create(ctx, t); err != nil {
		return ConfirmTransferOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//作成後は戻せない。カートとセッションを片付ける。
	_ = u.carts.DeleteCart(ctx, s.CartKey)
	_ = u.sessions.DeleteSession(ctx, s.ID)

	return ConfirmTransferOutput{
		TransactionID: t.ID,
		Status:        t.Status,
	}, nil
}

// Getは再描画用にセッション状態を返す
func (u *CheckoutUsecase) Get(ctx context.Context, sessionID string) (CheckoutSessionOutput, error) {
	s, err := u.loadSession(ctx, sessionID)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}
	return u.buildOutput(ctx, s, "")
}

// Backは1つ前のステップへ戻す（飛び越しは不可）。
// Finishから戻るとMethodの結果（token・振込先）は破棄する。
func (u *CheckoutUsecase) Back(ctx context.Context, sessionID string) (CheckoutSessionOutput, error) {
	s, err := u.loadSession(ctx, sessionID)
	if err != nil {
		return CheckoutSessionOutput{}, err
	}

	switch s.Step {
	case model.CheckoutStepFinish:
		s.Step = model.CheckoutStepMethod
		s.Method = ""
		s.ClientSecret = ""
		s.PayoutInstructions = ""
	case model.CheckoutStepMethod:
		s.Step = model.CheckoutStepIdentity
	default:
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "already on first step")
	}

	if err := u.sessions.SetSession(ctx, s); err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "session error")
	}

	return u.buildOutput(ctx, s, "")
}

func (u *CheckoutUsecase) loadSession(ctx context.Context, id string) (*model.CheckoutSession, error) {
	if id == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	s, err := u.sessions.GetSession(ctx, id)
	if errors.Is(err, ErrCacheMiss) {
		return nil, NewHTTPError(http.StatusNotFound, "checkout session not found")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "session error")
	}
	return s, nil
}

func (u *CheckoutUsecase) buildOutput(ctx context.Context, s *model.CheckoutSession, accessToken string) (CheckoutSessionOutput, error) {
	seller, err := u.userRepo.FindByID(ctx, s.SellerID)
	if err != nil {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CheckoutSessionOutput{
		ID:                  s.ID,
		Step:                s.Step,
		AlbumID:             s.AlbumID,
		PhotoCount:          len(s.PhotoIDs),
		AmountCents:         s.AmountCents,
		Method:              s.Method,
		ClientSecret:        s.ClientSecret,
		PayoutInstructions:  s.PayoutInstructions,
		BankTransferEnabled: seller.BankTransferEnabled,
		AccessToken:         accessToken,
	}, nil
}

// Commissionは手数料（セント、切り捨て）
func Commission(amountCents int64, rate float64) int64 {
	return int64(math.Floor(float64(amountCents) * rate))
}

// auth usecaseのエラーをHTTPに割り当てる。メッセージは加工しない。
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserInactive):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrInvalidEmailFormat),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "auth error")
	}
}
