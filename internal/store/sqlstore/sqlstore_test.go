package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// testSecret はテスト用のトークン署名鍵。
const testSecret = "test-secret-key-for-unit-tests"

// fakeClock は呼び出すたびに1秒進む時計。作成順と日時の順序を一致させる。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// newTestStore はスキーマ適用済みのインメモリSQLiteストアを生成する。
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), Options{
		Dialect:   DialectSQLite,
		DSN:       ":memory:",
		JWTSecret: testSecret,
	})
	if err != nil {
		t.Fatalf("ストアの生成に失敗: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = clock.Now

	if _, err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("スキーマ適用に失敗: %v", err)
	}
	return s
}

// signUp はテスト用アカウントを作成し、呼び出し元を返すヘルパー関数。
func signUp(t *testing.T, s *Store, email string) model.Caller {
	t.Helper()

	sess, err := s.SignUp(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("テスト用アカウントの作成に失敗: %v", err)
	}
	return model.Caller{Account: sess.User, AccessToken: sess.AccessToken}
}

// wantCode はエラーが指定コードのストアエラーであることを検証する。
func wantCode(t *testing.T, err error, want store.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("エラーが返されなかった: want %q", want)
	}
	code, ok := store.CodeOf(err)
	if !ok {
		t.Fatalf("ストアエラーではない: %v", err)
	}
	if code != want {
		t.Errorf("code = %q, want %q (err=%v)", code, want, err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("未対応の方言はエラー", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(context.Background(), Options{Dialect: "mysql", DSN: "x", JWTSecret: "s"}); err == nil {
			t.Error("Open() がエラーを返さなかった")
		}
	})

	t.Run("署名鍵が空の場合はエラー", func(t *testing.T) {
		t.Parallel()
		if _, err := Open(context.Background(), Options{Dialect: DialectSQLite, DSN: ":memory:"}); err == nil {
			t.Error("Open() がエラーを返さなかった")
		}
	})

	t.Run("マイグレーションは冪等であること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		n, err := s.Migrate(context.Background())
		if err != nil {
			t.Fatalf("2回目の Migrate() でエラーが発生: %v", err)
		}
		if n != 0 {
			t.Errorf("適用件数 = %d, want 0", n)
		}
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping() でエラーが発生: %v", err)
		}
	})
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	if got := sqliteDSN(":memory:"); got != ":memory:" {
		t.Errorf("sqliteDSN(:memory:) = %q", got)
	}
	if got := sqliteDSN("blog.db?_pragma=foreign_keys(1)"); got != "blog.db?_pragma=foreign_keys(1)" {
		t.Errorf("指定済みのクエリが書き換えられた: %q", got)
	}
	if got := sqliteDSN("blog.db"); got != "blog.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)" {
		t.Errorf("sqliteDSN(blog.db) = %q", got)
	}
}
