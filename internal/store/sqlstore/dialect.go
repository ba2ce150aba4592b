package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect はSQLデータベースの方言。
type Dialect string

const (
	// DialectSQLite は modernc.org/sqlite を使うSQLite。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres は pgx の database/sql ドライバを使うPostgres。
	DialectPostgres Dialect = "postgres"
)

// driverName は database/sql に登録されたドライバ名を返す。
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("未対応のSQL方言です: %q", d)
	}
}

// migrationsDir はembedされたマイグレーションのディレクトリを返す。
func (d Dialect) migrationsDir() string {
	return "migrations/" + string(d)
}

// rebind は "?" プレースホルダを方言の形式に書き換える。
// クエリ中の文字列リテラルには "?" を含めないこと。
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// constraintMessage は制約違反エラーであればドライバのメッセージを返す。
func constraintMessage(err error) (string, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return se.Error(), true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE クラス 23 は整合性制約違反。
		if strings.HasPrefix(pgErr.Code, "23") {
			return pgErr.Message, true
		}
	}
	return "", false
}
