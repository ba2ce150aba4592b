package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/blog/internal/store"
)

// Kind はゲートウェイ操作の失敗の種類。
type Kind string

const (
	// KindUnauthenticated は呼び出し元を解決できないことを表す。
	KindUnauthenticated Kind = "unauthenticated"
	// KindInvalidCredentials は資格情報が拒否されたことを表す。
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindValidation は入力値または制約違反による拒否を表す。
	KindValidation Kind = "validation"
	// KindBadRequest はリクエストの形式が不正であることを表す。
	KindBadRequest Kind = "bad_request"
	// KindNotFound は対象が存在しないことを表す。
	KindNotFound Kind = "not_found"
	// KindNotFoundOrForbidden は対象が存在しないか、呼び出し元の所有でないことを表す。
	// 両者は区別しない。
	KindNotFoundOrForbidden Kind = "not_found_or_forbidden"
	// KindInternal は内部エラーを表す。詳細はクライアントに返さない。
	KindInternal Kind = "internal"
)

// MsgInternal は内部エラー時にクライアントへ返すメッセージ。
const MsgInternal = "Internal server error"

// Status は失敗の種類に対応するHTTPステータスコードを返す。
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidCredentials, KindValidation, KindBadRequest, KindNotFoundOrForbidden:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error はゲートウェイ操作の失敗。Messageはクライアントにそのまま返してよい。
type Error struct {
	// Kind は失敗の種類。
	Kind Kind
	// Message はクライアントに返すメッセージ。
	Message string
	// Err は原因となったエラー。ログ出力にのみ使う。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// newError は指定種類のゲートウェイエラーを生成する。
func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf はエラーチェーンから失敗の種類を取り出す。
// ゲートウェイエラーでない場合は KindInternal を返す。
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// storeKinds はストアの拒否理由とゲートウェイの失敗の種類の対応。
var storeKinds = map[store.Code]Kind{
	store.CodeInvalidSession:     KindUnauthenticated,
	store.CodeInvalidCredentials: KindInvalidCredentials,
	store.CodeValidation:         KindValidation,
	store.CodeNotFound:           KindNotFound,
	store.CodeNoMatch:            KindNotFoundOrForbidden,
}

// fromStore はストアのエラーをゲートウェイエラーに変換する。
// ストアが明示的に拒否した場合はストアのメッセージをそのまま使い、
// それ以外は内部エラーとして原因を保持する。
func fromStore(op string, err error) *Error {
	var se *store.Error
	if errors.As(err, &se) {
		if kind, ok := storeKinds[se.Code]; ok {
			return &Error{Kind: kind, Message: se.Message, Err: err}
		}
	}
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: fmt.Errorf("%s: %w", op, err)}
}
