package usecase_test

import (
	"context"
	"io"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks（usecase配下のテストで共用）
// =====================

type MockCartStore struct{ mock.Mock }

func (m *MockCartStore) GetCart(ctx context.Context, key string) (*model.Cart, error) {
	args := m.Called(ctx, key)
	cart, _ := args.Get(0).(*model.Cart)
	return cart, args.Error(1)
}

func (m *MockCartStore) SetCart(ctx context.Context, key string, cart *model.Cart) error {
	args := m.Called(ctx, key, cart)
	return args.Error(0)
}

func (m *MockCartStore) DeleteCart(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockSessionStore struct{ mock.Mock }

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*model.CheckoutSession, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*model.CheckoutSession)
	return s, args.Error(1)
}

func (m *MockSessionStore) SetSession(ctx context.Context, s *model.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLatch struct{ mock.Mock }

func (m *MockLatch) AcquireLatch(ctx context.Context, paymentRef string) (bool, error) {
	args := m.Called(ctx, paymentRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockLatch) ReleaseLatch(ctx context.Context, paymentRef string) error {
	args := m.Called(ctx, paymentRef)
	return args.Error(0)
}

type MockAuthenticator struct{ mock.Mock }

func (m *MockAuthenticator) Login(ctx context.Context, email string, password string) (usecase.IdentityResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(usecase.IdentityResult)
	return res, args.Error(1)
}

func (m *MockAuthenticator) Signup(ctx context.Context, name string, email string, password string) (usecase.IdentityResult, error) {
	args := m.Called(ctx, name, email, password)
	res, _ := args.Get(0).(usecase.IdentityResult)
	return res, args.Error(1)
}

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in usecase tests")
}

func (m *MockUserRepo) FindPhotographerByDisplayName(ctx context.Context, name string) (*model.User, error) {
	args := m.Called(ctx, name)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockAlbumRepo struct{ mock.Mock }

func (m *MockAlbumRepo) Create(ctx context.Context, a model.Album) (model.Album, error) {
	args := m.Called(ctx, a)
	created, _ := args.Get(0).(model.Album)
	return created, args.Error(1)
}

func (m *MockAlbumRepo) FindByID(ctx context.Context, id int64) (model.Album, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(model.Album)
	return a, args.Error(1)
}

func (m *MockAlbumRepo) FindPublishedByTitle(ctx context.Context, title string) (model.Album, error) {
	args := m.Called(ctx, title)
	a, _ := args.Get(0).(model.Album)
	return a, args.Error(1)
}

func (m *MockAlbumRepo) ListPublishedByPhotographer(ctx context.Context, photographerID int64) ([]model.Album, error) {
	args := m.Called(ctx, photographerID)
	list, _ := args.Get(0).([]model.Album)
	return list, args.Error(1)
}

func (m *MockAlbumRepo) Update(ctx context.Context, a model.Album) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAlbumRepo) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPhotoRepo struct{ mock.Mock }

func (m *MockPhotoRepo) Create(ctx context.Context, p model.Photo) (model.Photo, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Photo)
	return created, args.Error(1)
}

func (m *MockPhotoRepo) FindByID(ctx context.Context, id int64) (model.Photo, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Photo)
	return p, args.Error(1)
}

func (m *MockPhotoRepo) ListByAlbumID(ctx context.Context, albumID int64) ([]model.Photo, error) {
	args := m.Called(ctx, albumID)
	list, _ := args.Get(0).([]model.Photo)
	return list, args.Error(1)
}

func (m *MockPhotoRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Photo, error) {
	args := m.Called(ctx, ids)
	list, _ := args.Get(0).([]model.Photo)
	return list, args.Error(1)
}

type MockTierRepo struct{ mock.Mock }

func (m *MockTierRepo) ReplaceForAlbum(ctx context.Context, albumID int64, tiers []model.PricingTier) error {
	args := m.Called(ctx, albumID, tiers)
	return args.Error(0)
}

func (m *MockTierRepo) ListByAlbumID(ctx context.Context, albumID int64) ([]model.PricingTier, error) {
	args := m.Called(ctx, albumID)
	list, _ := args.Get(0).([]model.PricingTier)
	return list, args.Error(1)
}

type MockTransactionRepo struct{ mock.Mock }

func (m *MockTransactionRepo) Create(ctx context.Context, t model.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(model.Transaction)
	return t, args.Error(1)
}

func (m *MockTransactionRepo) FindByPaymentRef(ctx context.Context, ref string) (model.Transaction, bool, error) {
	args := m.Called(ctx, ref)
	t, _ := args.Get(0).(model.Transaction)
	return t, args.Bool(1), args.Error(2)
}

func (m *MockTransactionRepo) ListByBuyerID(ctx context.Context, buyerID int64) ([]model.Transaction, error) {
	args := m.Called(ctx, buyerID)
	list, _ := args.Get(0).([]model.Transaction)
	return list, args.Error(1)
}

func (m *MockTransactionRepo) ListBySellerID(ctx context.Context, sellerID int64) ([]model.Transaction, error) {
	args := m.Called(ctx, sellerID)
	list, _ := args.Get(0).([]model.Transaction)
	return list, args.Error(1)
}

func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus, proofReference string) error {
	args := m.Called(ctx, id, status, proofReference)
	return args.Error(0)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) CreateSession(ctx context.Context, in usecase.CreatePaymentSessionInput) (usecase.CreatePaymentSessionOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(usecase.CreatePaymentSessionOutput)
	return out, args.Error(1)
}

type MockStorage struct{ mock.Mock }

func (m *MockStorage) Upload(ctx context.Context, bucket string, path string, data io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, bucket, path, data, size, contentType)
	return args.Error(0)
}

func (m *MockStorage) PublicURL(bucket string, path string) string {
	args := m.Called(bucket, path)
	return args.String(0)
}

func (m *MockStorage) SignedURL(ctx context.Context, bucket string, path string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, path, ttl)
	return args.String(0), args.Error(1)
}

// WithinTxをそのまま実行するスタブ。中のRepoは上のMockを返す。
type stubTxManager struct {
	users        *MockUserRepo
	albums       *MockAlbumRepo
	photos       *MockPhotoRepo
	tiers        *MockTierRepo
	transactions *MockTransactionRepo
}

func (s *stubTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s)
}

func (s *stubTxManager) Users() repo.UserRepository               { return s.users }
func (s *stubTxManager) Albums() repo.AlbumRepository             { return s.albums }
func (s *stubTxManager) Photos() repo.PhotoRepository             { return s.photos }
func (s *stubTxManager) PricingTiers() repo.PricingTierRepository { return s.tiers }
func (s *stubTxManager) Transactions() repo.TransactionRepository { return s.transactions }

type stubIDGen struct{ id string }

func (g *stubIDGen) NewID() string { return g.id }

type stubClock struct{ t time.Time }

func (c *stubClock) Now() time.Time { return c.t }

// =====================
// Helpers
// =====================

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}

func ptrInt64(v int64) *int64 { return &v }
