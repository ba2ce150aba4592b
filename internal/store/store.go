// Package store は認証とリレーショナルデータを提供する外部ストアとの契約を定義する。
//
// ゲートウェイはこのインターフェースだけに依存する。実装はローカルSQLデータベース
// （sqlstore）とホスティングされたSupabaseプロジェクト（supabase）の2種類がある。
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/blog/internal/model"
)

// Store は外部ストアが提供すべき操作の集合。
type Store interface {
	Auth
	Posts
	Directory

	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
	// Close はストアが保持する接続を解放する。
	Close() error
}

// Auth はセッションと資格情報を扱う。
type Auth interface {
	// Identity はトークンに対応するアカウントを返す。
	Identity(ctx context.Context, token string) (model.Account, error)
	// SignUp は新しいアカウントを作成し、セッションを返す。
	// メール確認が必要なストアではセッションのAccessTokenが空になる。
	SignUp(ctx context.Context, email, password string) (model.Session, error)
	// SignIn は資格情報を検証し、セッションを返す。
	SignIn(ctx context.Context, email, password string) (model.Session, error)
}

// Posts は記事テーブルを扱う。書き込みは必ず所有者条件で絞り込む。
type Posts interface {
	// ListPosts は作成日時の降順で記事を返す。
	ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
	// GetPost はIDに一致する記事を返す。
	GetPost(ctx context.Context, id string) (model.Post, error)
	// InsertPost は呼び出し元を著者として記事を作成する。
	InsertPost(ctx context.Context, caller model.Caller, in model.PostInput) (model.Post, error)
	// UpdateOwnedPost は id と author_id の両方が一致する記事だけを更新する。
	UpdateOwnedPost(ctx context.Context, caller model.Caller, id string, patch model.PostPatch) (model.Post, error)
	// DeleteOwnedPost は id と author_id の両方が一致する記事だけを削除する。
	DeleteOwnedPost(ctx context.Context, caller model.Caller, id string) error
}

// Directory はアカウントとプロフィールの参照を扱う。
type Directory interface {
	// ListAccounts は指定IDのアカウントを返す。存在しないIDは無視する。
	ListAccounts(ctx context.Context, ids []string) ([]model.Account, error)
	// ListProfiles は指定アカウントIDのプロフィールを返す。存在しないIDは無視する。
	ListProfiles(ctx context.Context, accountIDs []string) ([]model.Profile, error)
}

// Code はストアが返す拒否理由の分類。
type Code string

const (
	// CodeInvalidSession はトークンが無効または期限切れであることを表す。
	CodeInvalidSession Code = "invalid_session"
	// CodeInvalidCredentials はメールアドレスまたはパスワードが誤っていることを表す。
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodeValidation は入力値または制約違反による拒否を表す。
	CodeValidation Code = "validation"
	// CodeNotFound は対象の行が存在しないことを表す。
	CodeNotFound Code = "not_found"
	// CodeNoMatch は所有者条件に一致する行が無いことを表す。
	// 行が存在しない場合と他人の行である場合を区別しない。
	CodeNoMatch Code = "no_match"
)

// Error はストアが明示的に拒否したことを表すエラー。
// Messageはストア自身のメッセージで、呼び出し元にそのまま返してよい。
// これ以外のエラー（通信障害など）は内部エラーとして扱う。
type Error struct {
	// Code は拒否理由の分類。
	Code Code
	// Message はストアのメッセージ。
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf は指定コードのストアエラーを生成する。
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf はエラーチェーンからストアエラーのコードを取り出す。
func CodeOf(err error) (Code, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// 外部ストア間で共通のメッセージ。
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgUserExists         = "User already registered"
	MsgWeakPassword       = "Password should be at least 6 characters"
	MsgInvalidEmail       = "Unable to validate email address: invalid format"
	MsgPostNotFound       = "Post not found"
	MsgNoMatch            = "Post not found or not owned by the caller"
)
