package main

import (
	"context"
	"fmt"

	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/internal/store/sqlstore"
	"github.com/nao1215/blog/internal/store/supabase"
	"github.com/nao1215/blog/pkg/logger"
)

// migrator はスキーマを適用できるストア。
type migrator interface {
	Migrate(ctx context.Context) (int, error)
}

// openStore は設定のドライバに応じた外部ストアを開く。
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPostgres:
		st, err := sqlstore.Open(ctx, sqlstore.Options{
			Dialect:    sqlstore.Dialect(cfg.StoreDriver),
			DSN:        cfg.DatabaseURL,
			JWTSecret:  cfg.JWTSecret,
			SessionTTL: cfg.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("SQLストアの接続に失敗: %w", err)
		}
		return st, nil
	case config.DriverSupabase:
		st, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, fmt.Errorf("Supabaseストアの生成に失敗: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("未対応のSTORE_DRIVERです: %q", cfg.StoreDriver)
	}
}

// migrateStore はストアがSQLストアであればスキーマを適用する。
// Supabaseのスキーマはプロジェクト側で管理するため何もしない。
func migrateStore(ctx context.Context, st store.Store) error {
	m, ok := st.(migrator)
	if !ok {
		logger.Default().Info("このストアはマイグレーションに対応していないためスキップします")
		return nil
	}
	applied, err := m.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	logger.Default().WithField("applied", applied).Info("マイグレーションを適用しました")
	return nil
}
