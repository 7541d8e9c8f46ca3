package main

import (
	"context"
	"log"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	"app/internal/infra/payment"
	infraRepo "app/internal/infra/repository"
	"app/internal/infra/storage"
	"app/internal/server"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":           userID,
		"role":          string(role),
		"token_version": tokenVersion,
		"iat":           now.Unix(),
		"exp":           expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// チェックアウト内ログイン・会員登録をauth usecaseへ委譲するアダプタ
type identityAuthenticator struct {
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
}

func (a *identityAuthenticator) Login(ctx context.Context, email string, password string) (usecase.IdentityResult, error) {
	out, err := a.loginUC.Execute(ctx, auth.LoginInput{Email: email, Password: password})
	if err != nil {
		return usecase.IdentityResult{}, err
	}
	return usecase.IdentityResult{
		UserID:      out.User.ID,
		Email:       out.User.Email,
		AccessToken: out.Token.AccessToken,
		ExpiresIn:   out.Token.ExpiresIn,
	}, nil
}

func (a *identityAuthenticator) Signup(ctx context.Context, name string, email string, password string) (usecase.IdentityResult, error) {
	_, err := a.registerUC.Execute(ctx, auth.RegisterUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleBuyer,
	})
	if err != nil {
		return usecase.IdentityResult{}, err
	}

	//登録直後にそのままログインしてトークンを得る
	return a.Login(ctx, email, password)
}

func main() {
	//.envは無ければ環境変数をそのまま使う
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Album{},
		&model.Photo{},
		&model.PricingTier{},
		&model.Transaction{},
	); err != nil {
		log.Fatal(err)
	}

	//Redis（カート・チェックアウトセッション・精算ラッチ）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	store := cache.NewRedisStore(redisClient)

	//Stripe（カード決済）
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.FEURL)

	//オブジェクトストレージ（プレビュー公開・原本は署名URL）
	objStorage, err := storage.NewMinioStorage(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageUseSSL)
	if err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	albumRepo := infraRepo.NewAlbumGormRepository(gormDB)
	photoRepo := infraRepo.NewPhotoGormRepository(gormDB)
	tierRepo := infraRepo.NewPricingTierGormRepository(gormDB)
	txRepo := infraRepo.NewTransactionGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	authn := &identityAuthenticator{registerUC: registerUC, loginUC: loginUC}

	albumUC := usecase.NewAlbumUsecase(albumRepo, photoRepo, tierRepo, userRepo, objStorage, clock, cfg.PublicBucket, cfg.PrivateBucket)
	cartUC := usecase.NewCartUsecase(store, albumRepo, photoRepo, tierRepo, userRepo, clock)
	checkoutUC := usecase.NewCheckoutUsecase(store, store, albumRepo, tierRepo, userRepo, txRepo, gateway, authn, idGen, clock, cfg.CommissionRate)
	settlementUC := usecase.NewSettlementUsecase(store, txManager, store, idGen, clock, cfg.CommissionRate)
	accessUC := usecase.NewAccessUsecase(txRepo, photoRepo, albumRepo, objStorage, cfg.PrivateBucket, cfg.SignedURLTTL)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(registerUC, loginUC),
		Album:      handler.NewAlbumHandler(albumUC),
		Cart:       handler.NewCartHandler(cartUC),
		Checkout:   handler.NewCheckoutHandler(checkoutUC, cfg.StripePublishableKey),
		Settlement: handler.NewSettlementHandler(settlementUC),
		Purchase:   handler.NewPurchaseHandler(accessUC),
	}

	//Server起動
	if err := server.Start(cfg, handlers); err != nil {
		log.Fatal(err)
	}
}
