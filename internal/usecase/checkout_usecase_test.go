package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type checkoutFixture struct {
	sessions *MockSessionStore
	carts    *MockCartStore
	albums   *MockAlbumRepo
	tiers    *MockTierRepo
	users    *MockUserRepo
	txRepo   *MockTransactionRepo
	gateway  *MockGateway
	authn    *MockAuthenticator
	uc       *usecase.CheckoutUsecase
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		sessions: new(MockSessionStore),
		carts:    new(MockCartStore),
		albums:   new(MockAlbumRepo),
		tiers:    new(MockTierRepo),
		users:    new(MockUserRepo),
		txRepo:   new(MockTransactionRepo),
		gateway:  new(MockGateway),
		authn:    new(MockAuthenticator),
	}
	f.uc = usecase.NewCheckoutUsecase(
		f.sessions, f.carts, f.albums, f.tiers, f.users, f.txRepo,
		f.gateway, f.authn,
		&stubIDGen{id: "sess-1"},
		&stubClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		0.10,
	)
	return f
}

func TestCheckoutUsecase_Start_GuestBeginsAtIdentity(t *testing.T) {
	f := newCheckoutFixture()

	f.carts.On("GetCart", mock.Anything, "guest-token").Return(&model.Cart{Items: []model.CartItem{
		{PhotoID: 1, AlbumID: 10, FlatPriceCents: 1000},
		{PhotoID: 2, AlbumID: 10, FlatPriceCents: 1000},
	}}, nil)
	f.albums.On("FindByID", mock.Anything, int64(10)).Return(model.Album{ID: 10, PhotographerID: 3}, nil)
	f.tiers.On("ListByAlbumID", mock.Anything, int64(10)).Return([]model.PricingTier{}, nil)
	f.sessions.On("SetSession", mock.Anything, mock.Anything).Return(nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, BankTransferEnabled: true}, nil)

	out, err := f.uc.Start(context.Background(), usecase.StartCheckoutInput{CartKey: "guest-token", AlbumID: 10})
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutStepIdentity, out.Step)
	assert.Equal(t, 2, out.PhotoCount)
	assert.Equal(t, int64(2000), out.AmountCents)
	assert.True(t, out.BankTransferEnabled)
}

func TestCheckoutUsecase_Start_AuthenticatedSkipsIdentity(t *testing.T) {
	f := newCheckoutFixture()

	f.carts.On("GetCart", mock.Anything, "user:9").Return(&model.Cart{Items: []model.CartItem{
		{PhotoID: 1, AlbumID: 10, FlatPriceCents: 1000},
	}}, nil)
	f.albums.On("FindByID", mock.Anything, int64(10)).Return(model.Album{ID: 10, PhotographerID: 3}, nil)
	f.tiers.On("ListByAlbumID", mock.Anything, int64(10)).Return([]model.PricingTier{}, nil)
	f.users.On("FindByID", mock.Anything, int64(9)).Return(&model.User{ID: 9, Email: "buyer@example.com"}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3}, nil)
	f.sessions.On("SetSession", mock.Anything, mock.MatchedBy(func(s *model.CheckoutSession) bool {
		return s.Step == model.CheckoutStepMethod && s.BuyerEmail == "buyer@example.com"
	})).Return(nil)

	out, err := f.uc.Start(context.Background(), usecase.StartCheckoutInput{
		CartKey: "user:9", AlbumID: 10, BuyerID: ptrInt64(9),
	})
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutStepMethod, out.Step)
	f.sessions.AssertExpectations(t)
}

func TestCheckoutUsecase_Start_AlbumNotInCart(t *testing.T) {
	f := newCheckoutFixture()

	f.carts.On("GetCart", mock.Anything, "user:9").Return(&model.Cart{Items: []model.CartItem{
		{PhotoID: 1, AlbumID: 99},
	}}, nil)

	_, err := f.uc.Start(context.Background(), usecase.StartCheckoutInput{CartKey: "user:9", AlbumID: 10})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCheckoutUsecase_SelectMethod_BankTransferNotOffered(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepMethod, SellerID: 3, AmountCents: 1000,
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, BankTransferEnabled: false}, nil)

	_, err := f.uc.SelectMethod(context.Background(), usecase.SelectMethodInput{
		SessionID: "sess-1", Method: model.PaymentMethodBankTransfer,
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCheckoutUsecase_SelectMethod_CardWithoutRouting(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepMethod, SellerID: 3, AmountCents: 1000,
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, StripeAccountID: ""}, nil)

	_, err := f.uc.SelectMethod(context.Background(), usecase.SelectMethodInput{
		SessionID: "sess-1", Method: model.PaymentMethodCard,
	})
	assertHTTPStatus(t, err, http.StatusConflict)
	f.gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_SelectMethod_GatewayFailureStaysOnMethod(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepMethod, SellerID: 3, AmountCents: 1000,
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, StripeAccountID: "acct_1"}, nil)
	f.gateway.On("CreateSession", mock.Anything, mock.Anything).
		Return(usecase.CreatePaymentSessionOutput{}, errors.New("stripe down"))

	_, err := f.uc.SelectMethod(context.Background(), usecase.SelectMethodInput{
		SessionID: "sess-1", Method: model.PaymentMethodCard,
	})
	assertHTTPStatus(t, err, http.StatusBadGateway)

	//失敗時はFINISHへ進めない
	f.sessions.AssertNotCalled(t, "SetSession", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_SelectMethod_CardAdvancesToFinish(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepMethod, SellerID: 3,
		AlbumID: 10, PhotoIDs: []int64{1, 2}, AmountCents: 1990, BuyerEmail: "b@example.com",
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, StripeAccountID: "acct_1"}, nil)

	//手数料は切り捨て：1990 × 0.10 = 199
	f.gateway.On("CreateSession", mock.Anything, mock.MatchedBy(func(in usecase.CreatePaymentSessionInput) bool {
		return in.SellerRoutingID == "acct_1" && in.CommissionCents == 199 && in.BuyerEmail == "b@example.com"
	})).Return(usecase.CreatePaymentSessionOutput{SessionID: "cs_123", ClientSecret: "secret_123"}, nil)

	f.sessions.On("SetSession", mock.Anything, mock.MatchedBy(func(s *model.CheckoutSession) bool {
		return s.Step == model.CheckoutStepFinish && s.ClientSecret == "secret_123"
	})).Return(nil)

	out, err := f.uc.SelectMethod(context.Background(), usecase.SelectMethodInput{
		SessionID: "sess-1", Method: model.PaymentMethodCard,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutStepFinish, out.Step)
	assert.Equal(t, "secret_123", out.ClientSecret)
	f.gateway.AssertExpectations(t)
}

func TestCheckoutUsecase_ConfirmTransfer_CreatesManualPending(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepFinish, Method: model.PaymentMethodBankTransfer,
		AlbumID: 10, SellerID: 3, PhotoIDs: []int64{1, 2}, AmountCents: 2000,
		BuyerID: ptrInt64(9), CartKey: "user:9",
	}, nil)

	var created model.Transaction
	f.txRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(model.Transaction) }).
		Return(nil)
	f.carts.On("DeleteCart", mock.Anything, "user:9").Return(nil)
	f.sessions.On("DeleteSession", mock.Anything, "sess-1").Return(nil)

	out, err := f.uc.ConfirmTransfer(context.Background(), usecase.ConfirmTransferInput{
		SessionID: "sess-1", Acknowledged: true, Message: "  paid from account X ",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.TransactionStatusManualPending, out.Status)

	assert.Nil(t, created.PaymentRef)
	assert.Equal(t, model.TransactionStatusManualPending, created.Status)
	assert.Equal(t, int64(200), created.CommissionCents)
	assert.Equal(t, "paid from account X", created.BuyerMessage)

	ids, partial := created.UnlockedIDs()
	assert.True(t, partial)
	assert.Equal(t, []int64{1, 2}, ids)

	f.carts.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestCheckoutUsecase_ConfirmTransfer_RequiresAcknowledgement(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepFinish, Method: model.PaymentMethodBankTransfer,
	}, nil)

	_, err := f.uc.ConfirmTransfer(context.Background(), usecase.ConfirmTransferInput{
		SessionID: "sess-1", Acknowledged: false,
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_ConfirmTransfer_WrongStep(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepFinish, Method: model.PaymentMethodCard,
	}, nil)

	_, err := f.uc.ConfirmTransfer(context.Background(), usecase.ConfirmTransferInput{
		SessionID: "sess-1", Acknowledged: true,
	})
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestCheckoutUsecase_Back_FromFinishDiscardsMethodResult(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepFinish, Method: model.PaymentMethodCard,
		SellerID: 3, ClientSecret: "secret_123",
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3}, nil)
	f.sessions.On("SetSession", mock.Anything, mock.MatchedBy(func(s *model.CheckoutSession) bool {
		return s.Step == model.CheckoutStepMethod && s.ClientSecret == "" && s.Method == model.PaymentMethod("")
	})).Return(nil)

	out, err := f.uc.Back(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutStepMethod, out.Step)
	assert.Empty(t, out.ClientSecret)
	f.sessions.AssertExpectations(t)
}

func TestCheckoutUsecase_Back_FromIdentityFails(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(&model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepIdentity,
	}, nil)

	_, err := f.uc.Back(context.Background(), "sess-1")
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestCheckoutUsecase_Get_UnknownSession(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "nope").Return(nil, usecase.ErrCacheMiss)

	_, err := f.uc.Get(context.Background(), "nope")
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestCommission_RoundsDown(t *testing.T) {
	assert.Equal(t, int64(199), usecase.Commission(1990, 0.10))
	assert.Equal(t, int64(99), usecase.Commission(999, 0.10))
	assert.Equal(t, int64(0), usecase.Commission(9, 0.10))
	assert.Equal(t, int64(0), usecase.Commission(1000, 0))
}

func identitySession() *model.CheckoutSession {
	return &model.CheckoutSession{
		ID: "sess-1", Step: model.CheckoutStepIdentity, SellerID: 3,
		AlbumID: 10, PhotoIDs: []int64{1, 2}, AmountCents: 2000,
	}
}

func TestCheckoutUsecase_SubmitIdentity_LoginAdvancesToMethod(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(identitySession(), nil)
	f.authn.On("Login", mock.Anything, "buyer@example.com", "password123").
		Return(usecase.IdentityResult{UserID: 9, Email: "buyer@example.com", AccessToken: "token-abc"}, nil)

	var saved *model.CheckoutSession
	f.sessions.On("SetSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.CheckoutSession) }).
		Return(nil)
	f.users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, BankTransferEnabled: true}, nil)

	out, err := f.uc.SubmitIdentity(context.Background(), usecase.SubmitIdentityInput{
		SessionID: "sess-1", Mode: "login", Email: "buyer@example.com", Password: "password123",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.CheckoutStepMethod, out.Step)
	//その場でログインしたゲストにはトークンを返す
	assert.Equal(t, "token-abc", out.AccessToken)
	assert.Equal(t, int64(9), *saved.BuyerID)
	assert.Equal(t, "buyer@example.com", saved.BuyerEmail)
}

func TestCheckoutUsecase_SubmitIdentity_LoginFailureStaysOnIdentity(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(identitySession(), nil)
	f.authn.On("Login", mock.Anything, "buyer@example.com", "wrong").
		Return(usecase.IdentityResult{}, auth.ErrInvalidCredentials)

	_, err := f.uc.SubmitIdentity(context.Background(), usecase.SubmitIdentityInput{
		SessionID: "sess-1", Mode: "login", Email: "buyer@example.com", Password: "wrong",
	})
	assertHTTPStatus(t, err, http.StatusUnauthorized)

	//認証エラーはメッセージをそのまま見せる
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, auth.ErrInvalidCredentials.Error(), he.Message)

	//失敗時はステップを進めない
	f.sessions.AssertNotCalled(t, "SetSession", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_SubmitIdentity_SignupDuplicateEmail(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(identitySession(), nil)
	f.authn.On("Signup", mock.Anything, "alex", "buyer@example.com", "password123").
		Return(usecase.IdentityResult{}, auth.ErrEmailAlreadyExists)

	_, err := f.uc.SubmitIdentity(context.Background(), usecase.SubmitIdentityInput{
		SessionID: "sess-1", Mode: "signup", Name: "alex", Email: "buyer@example.com", Password: "password123",
	})
	assertHTTPStatus(t, err, http.StatusConflict)
	f.sessions.AssertNotCalled(t, "SetSession", mock.Anything, mock.Anything)
}

func TestCheckoutUsecase_SubmitIdentity_InvalidMode(t *testing.T) {
	f := newCheckoutFixture()

	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(identitySession(), nil)

	_, err := f.uc.SubmitIdentity(context.Background(), usecase.SubmitIdentityInput{
		SessionID: "sess-1", Mode: "oauth",
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCheckoutUsecase_SubmitIdentity_WrongStep(t *testing.T) {
	f := newCheckoutFixture()

	s := identitySession()
	s.Step = model.CheckoutStepMethod
	f.sessions.On("GetSession", mock.Anything, "sess-1").Return(s, nil)

	_, err := f.uc.SubmitIdentity(context.Background(), usecase.SubmitIdentityInput{
		SessionID: "sess-1", Mode: "login", Email: "buyer@example.com", Password: "password123",
	})
	assertHTTPStatus(t, err, http.StatusConflict)
}
