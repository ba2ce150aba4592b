package main

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/internal/store/supabase"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()

	t.Run("SQLiteストアを開いてマイグレーションできること", func(t *testing.T) {
		t.Parallel()

		st, err := openStore(context.Background(), &config.Config{
			StoreDriver: config.DriverSQLite,
			DatabaseURL: ":memory:",
			JWTSecret:   "secret",
			SessionTTL:  time.Hour,
		})
		if err != nil {
			t.Fatalf("ストアを開けない: %v", err)
		}
		t.Cleanup(func() { st.Close() })

		if err := migrateStore(context.Background(), st); err != nil {
			t.Fatalf("マイグレーションに失敗: %v", err)
		}
		// 2回目は適用済みのため何もしない
		if err := migrateStore(context.Background(), st); err != nil {
			t.Fatalf("2回目のマイグレーションに失敗: %v", err)
		}
	})

	t.Run("Supabaseストアはマイグレーションをスキップすること", func(t *testing.T) {
		t.Parallel()

		st, err := openStore(context.Background(), &config.Config{
			StoreDriver:     config.DriverSupabase,
			SupabaseURL:     "https://example.supabase.co",
			SupabaseAnonKey: "anon",
		})
		if err != nil {
			t.Fatalf("ストアを開けない: %v", err)
		}
		if _, ok := st.(*supabase.Store); !ok {
			t.Errorf("ストアの型 = %T, want *supabase.Store", st)
		}
		if err := migrateStore(context.Background(), st); err != nil {
			t.Errorf("マイグレーションがスキップされない: %v", err)
		}
	})

	t.Run("未対応のドライバはエラー", func(t *testing.T) {
		t.Parallel()

		if _, err := openStore(context.Background(), &config.Config{StoreDriver: "mysql"}); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}
