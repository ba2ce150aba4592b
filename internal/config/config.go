// Package config は環境変数からブログゲートウェイの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// ストアドライバ名。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

// Config はゲートウェイの実行時設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT,default=8080"`
	// StoreDriver は外部ストアの種類（sqlite, postgres, supabase）。
	StoreDriver string `env:"STORE_DRIVER,default=sqlite"`
	// DatabaseURL はSQLiteのファイルパスまたはPostgresの接続文字列。
	DatabaseURL string `env:"DATABASE_URL,default=blog.db"`
	// SupabaseURL はSupabaseプロジェクトのベースURL。
	SupabaseURL string `env:"SUPABASE_URL"`
	// SupabaseAnonKey はSupabaseの匿名APIキー。
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`
	// JWTSecret はSQLストアが発行するセッショントークンの署名鍵。
	JWTSecret string `env:"JWT_SECRET,default=dev-secret-key"`
	// SessionTTL はセッショントークンの有効期間。
	SessionTTL time.Duration `env:"SESSION_TTL,default=1h"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `env:"FRONTEND_URL,default=http://localhost:3000"`
	// LogLevel はlogrusのログレベル名。
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// SecureCookie はセッションCookieにSecure属性を付けるかどうか。
	SecureCookie bool `env:"SECURE_COOKIE,default=false"`
}

// Load は環境変数から設定を読み込み、検証する。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate はストアドライバごとの必須項目を検証する。
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=%s には DATABASE_URL が必要です", c.StoreDriver)
		}
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET が空です")
		}
		if c.SessionTTL <= 0 {
			return fmt.Errorf("SESSION_TTL は正の値である必要があります: %s", c.SessionTTL)
		}
	case DriverSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("STORE_DRIVER=supabase には SUPABASE_URL と SUPABASE_ANON_KEY が必要です")
		}
	default:
		return fmt.Errorf("未対応のSTORE_DRIVERです: %q", c.StoreDriver)
	}
	return nil
}
