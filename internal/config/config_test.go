package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("環境変数が未設定の場合はデフォルト値が使われること", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "")
		t.Setenv("PORT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.StoreDriver != DriverSQLite {
			t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
		}
		if cfg.SessionTTL != time.Hour {
			t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, time.Hour)
		}
		if cfg.SecureCookie {
			t.Error("SecureCookie = true, want false")
		}
	})

	t.Run("環境変数の値が反映されること", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/blog")
		t.Setenv("SESSION_TTL", "30m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() でエラーが発生: %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9000")
		}
		if cfg.StoreDriver != DriverPostgres {
			t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverPostgres)
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, 30*time.Minute)
		}
	})

	t.Run("supabaseドライバでキーが無い場合はエラー", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "supabase")
		t.Setenv("SUPABASE_URL", "")
		t.Setenv("SUPABASE_ANON_KEY", "")

		if _, err := Load(); err == nil {
			t.Error("Load() がエラーを返さなかった")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "sqliteの正常な設定",
			cfg:     Config{StoreDriver: DriverSQLite, DatabaseURL: "blog.db", JWTSecret: "s", SessionTTL: time.Hour},
			wantErr: false,
		},
		{
			name:    "sqliteでDATABASE_URLが空",
			cfg:     Config{StoreDriver: DriverSQLite, JWTSecret: "s", SessionTTL: time.Hour},
			wantErr: true,
		},
		{
			name:    "SESSION_TTLが0",
			cfg:     Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://", JWTSecret: "s"},
			wantErr: true,
		},
		{
			name:    "supabaseの正常な設定",
			cfg:     Config{StoreDriver: DriverSupabase, SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "anon"},
			wantErr: false,
		},
		{
			name:    "未対応のドライバ",
			cfg:     Config{StoreDriver: "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
