// Package sqlstore はSQLデータベース上に外部ストアの契約を実装する。
//
// SQLite（modernc.org/sqlite）とPostgres（pgx）の両方に対応する。
// クエリは "?" プレースホルダで1度だけ記述し、方言ごとに書き換えて実行する。
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// timeLayout は日時カラムの保存形式。固定長のため文字列の大小と時刻の前後が一致する。
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// defaultSessionTTL はセッショントークンのデフォルト有効期間。
const defaultSessionTTL = time.Hour

// Options はStoreの生成オプション。
type Options struct {
	// Dialect はSQL方言。
	Dialect Dialect
	// DSN はSQLiteのファイルパス（":memory:" 可）またはPostgresの接続文字列。
	DSN string
	// JWTSecret はセッショントークンの署名鍵。
	JWTSecret string
	// SessionTTL はセッショントークンの有効期間。0の場合は1時間。
	SessionTTL time.Duration
}

// Store はSQLデータベースをバックエンドとする外部ストア。
type Store struct {
	// db はデータベース接続。
	db *sql.DB
	// dialect はSQL方言。
	dialect Dialect
	// secret はセッショントークンの署名鍵。
	secret []byte
	// ttl はセッショントークンの有効期間。
	ttl time.Duration
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open はデータベースに接続してStoreを生成する。スキーマは適用しない。
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver, err := opts.Dialect.driverName()
	if err != nil {
		return nil, err
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("JWTSecretが空です")
	}

	dsn := opts.DSN
	if opts.Dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if opts.Dialect == DialectSQLite && strings.Contains(opts.DSN, ":memory:") {
		// インメモリDBは接続ごとに別のデータベースになる。
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &Store{
		db:      db,
		dialect: opts.Dialect,
		secret:  []byte(opts.JWTSecret),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// sqliteDSN はファイルDBにWALとビジータイムアウトのプラグマを付与する。
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") || strings.Contains(dsn, ":memory:") {
		return dsn
	}
	return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Migrate はembedされたスキーマを適用し、適用件数を返す。
func (s *Store) Migrate(ctx context.Context) (int, error) {
	n, err := migration.Run(ctx, s.db, migrationsFS, s.dialect.migrationsDir(), s.dialect.rebind)
	if err != nil {
		return n, fmt.Errorf("スキーマ適用に失敗: %w", err)
	}
	return n, nil
}

// Ping はデータベースへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// q は "?" プレースホルダのクエリを方言に合わせて書き換える。
func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

// timestamp は現在時刻を保存形式で返す。
func (s *Store) timestamp() (time.Time, string) {
	now := s.now().UTC()
	return now, now.Format(timeLayout)
}

// parseTime は保存形式の日時文字列を解析する。
func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("日時の解析に失敗: %q: %w", v, err)
	}
	return t, nil
}

// nullString はsql.NullStringをポインタに変換する。
func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// placeholders はn個の "?" をカンマ区切りで返す。
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// uniqueIDs は空文字と重複を除いたIDをクエリ引数として返す。
func uniqueIDs(ids []string) []any {
	seen := make(map[string]struct{}, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		args = append(args, id)
	}
	return args
}
