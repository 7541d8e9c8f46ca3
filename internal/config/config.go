package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	RedisAddr     string // Redisのhost:port
	RedisPassword string // Redisパスワード（空でもよい）

	JWTSecret string // JWT署名シークレット

	StripeSecretKey      string // Stripeシークレットキー
	StripePublishableKey string // Stripe公開キー（クライアントへ返す）

	// プラットフォーム手数料率（0.10 = 10%）
	CommissionRate float64

	StorageEndpoint  string // オブジェクトストレージのエンドポイント
	StorageAccessKey string
	StorageSecretKey string
	StorageUseSSL    bool
	PublicBucket     string // 透かし入りプレビュー用
	PrivateBucket    string // 原本用（署名URLでのみ配布）

	// 署名URLの有効期限
	SignedURLTTL time.Duration

	GoEnv string // dev/prod
	FEURL string // フロントURL（決済リダイレクト先・CORS）

	// ゼッケン番号検出コラボレータのAPIキー。設定として受けるだけで、検出処理自体は別系統。
	BibDetectionAPIKey string

}

// Loadは環境変数から設定を組み立てる
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	rate := 0.10
	if v := os.Getenv("COMMISSION_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("COMMISSION_RATE must be number: %w", err)
		}
		if f < 0 || f >= 1 {
			return Config{}, fmt.Errorf("COMMISSION_RATE must be in [0,1)")
		}
		rate = f
	}

	ttl := time.Hour
	if v := os.Getenv("SIGNED_URL_TTL_SECONDS"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return Config{}, fmt.Errorf("SIGNED_URL_TTL_SECONDS must be positive number")
		}
		ttl = time.Duration(sec) * time.Second
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),

		CommissionRate: rate,

		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageUseSSL:    os.Getenv("STORAGE_USE_SSL") == "true",
		PublicBucket:     getenv("STORAGE_PUBLIC_BUCKET", "previews"),
		PrivateBucket:    getenv("STORAGE_PRIVATE_BUCKET", "originals"),

		SignedURLTTL: ttl,

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		BibDetectionAPIKey: os.Getenv("BIB_DETECTION_API_KEY"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.StorageEndpoint == "" {
		return Config{}, fmt.Errorf("STORAGE_ENDPOINT is required")
	}
	if cfg.StorageAccessKey == "" {
		return Config{}, fmt.Errorf("STORAGE_ACCESS_KEY is required")
	}
	if cfg.StorageSecretKey == "" {
		return Config{}, fmt.Errorf("STORAGE_SECRET_KEY is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
