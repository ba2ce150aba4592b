package model

import "time"

// Role はアカウントの権限種別。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Account は認証済みアカウントの識別情報。
type Account struct {
	// ID はアカウントの一意識別子。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// FullName は表示名。
	FullName *string `json:"full_name"`
	// AvatarURL はアバター画像のURL。
	AvatarURL *string `json:"avatar_url"`
	// Role はアカウントの権限種別。
	Role Role `json:"role"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile はアカウントに1対1で紐づく公開プロフィール。
type Profile struct {
	// ID はプロフィールの一意識別子。
	ID string `json:"id"`
	// AccountID は所有アカウントのID。
	AccountID string `json:"account_id"`
	// Username はユーザー名。
	Username *string `json:"username"`
	// Bio は自己紹介文。
	Bio *string `json:"bio"`
	// Website はWebサイトのURL。
	Website *string `json:"website"`
	// Location は所在地。
	Location *string `json:"location"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// Session はサインアップ・サインインで発行されるセッション。
type Session struct {
	// AccessToken はAuthorizationヘッダーまたはCookieで提示するトークン。
	AccessToken string `json:"access_token"`
	// TokenType はトークン種別。常に "bearer"。
	TokenType string `json:"token_type"`
	// ExpiresIn は有効期間（秒）。
	ExpiresIn int64 `json:"expires_in"`
	// ExpiresAt は失効日時（Unix秒）。
	ExpiresAt int64 `json:"expires_at"`
	// User はセッションのアカウント。
	User Account `json:"user"`
}

// Caller はリクエストの呼び出し元。
// ゲートウェイの書き込み操作には必ず明示的に渡す。
type Caller struct {
	// Account は呼び出し元のアカウント。
	Account Account
	// AccessToken は呼び出し元が提示したトークン。
	// 外部ストア側の行レベルセキュリティに転送するために保持する。
	AccessToken string
}
