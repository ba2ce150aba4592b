package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// tokenIssuer はセッショントークンの発行者。
const tokenIssuer = "blog-sqlstore"

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// sessionClaims はセッショントークンのクレーム。SubjectにアカウントIDを持つ。
type sessionClaims struct {
	jwt.RegisteredClaims
	// Email はアカウントのメールアドレス。
	Email string `json:"email"`
	// Role はアカウントの権限種別。
	Role model.Role `json:"role"`
}

// SignUp はアカウントと空のプロフィールを1つのトランザクションで作成する。
func (s *Store) SignUp(ctx context.Context, email, password string) (model.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return model.Session{}, err
	}
	if len(password) < minPasswordLength {
		return model.Session{}, store.Errorf(store.CodeValidation, store.MsgWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.Session{}, store.Errorf(store.CodeValidation, "Password cannot be longer than 72 characters")
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	now, ts := s.timestamp()
	account := model.Account{
		ID:        uuid.New().String(),
		Email:     email,
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Session{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		account.ID, account.Email, string(hash), string(account.Role), ts, ts,
	); err != nil {
		if _, ok := constraintMessage(err); ok {
			return model.Session{}, store.Errorf(store.CodeValidation, store.MsgUserExists)
		}
		return model.Session{}, fmt.Errorf("アカウント作成に失敗: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO profiles (id, account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)`),
		uuid.New().String(), account.ID, ts, ts,
	); err != nil {
		return model.Session{}, fmt.Errorf("プロフィール作成に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Session{}, fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}

	return s.issueSession(account)
}

// SignIn はメールアドレスとパスワードを検証してセッションを発行する。
// メールアドレスが存在しない場合とパスワードが誤っている場合は同じエラーを返す。
func (s *Store) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.Session{}, store.Errorf(store.CodeInvalidCredentials, store.MsgInvalidCredentials)
	}

	var hash string
	account, err := s.scanAccount(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+accountColumns+`, password_hash FROM accounts WHERE email = ?`), email), &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, store.Errorf(store.CodeInvalidCredentials, store.MsgInvalidCredentials)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("アカウント取得に失敗: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return model.Session{}, store.Errorf(store.CodeInvalidCredentials, store.MsgInvalidCredentials)
	}

	return s.issueSession(account)
}

// Identity はセッショントークンを検証し、対応するアカウントを返す。
func (s *Store) Identity(ctx context.Context, token string) (model.Account, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return model.Account{}, store.Errorf(store.CodeInvalidSession, "invalid JWT: %v", err)
	}

	account, err := s.scanAccount(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+accountColumns+` FROM accounts WHERE id = ?`), claims.Subject))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, store.Errorf(store.CodeInvalidSession, "User from sub claim in JWT does not exist")
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("アカウント取得に失敗: %w", err)
	}
	return account, nil
}

// issueSession はアカウントのセッショントークンを署名して返す。
func (s *Store) issueSession(account model.Account) (model.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		Email: account.Email,
		Role:  account.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.Session{}, fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}

	return model.Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
		ExpiresAt:   expiresAt.Unix(),
		User:        account,
	}, nil
}

// normalizeEmail はメールアドレスを小文字化し、形式を検証する。
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", store.Errorf(store.CodeValidation, store.MsgInvalidEmail)
	}
	return email, nil
}
