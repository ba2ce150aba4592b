package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/httpclient"
)

// authUser はGoTrueのユーザーオブジェクト。
type authUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Metadata  struct {
		FullName  *string `json:"full_name"`
		AvatarURL *string `json:"avatar_url"`
	} `json:"user_metadata"`
}

// account はGoTrueのユーザーをアカウントに変換する。
// GoTrueのroleはデータベースロールのため、アプリの権限種別には使わない。
func (u authUser) account() model.Account {
	return model.Account{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.Metadata.FullName,
		AvatarURL: u.Metadata.AvatarURL,
		Role:      model.RoleUser,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// authResponse はサインアップ・サインインのレスポンス。
// メール確認が必要な場合、サインアップはセッションではなくユーザーを直接返す。
type authResponse struct {
	authUser
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   int64     `json:"expires_at"`
	User        *authUser `json:"user"`
}

// session はレスポンスをセッションに変換する。
func (r authResponse) session() model.Session {
	user := r.authUser
	if r.User != nil {
		user = *r.User
	}
	return model.Session{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		ExpiresIn:   r.ExpiresIn,
		ExpiresAt:   r.ExpiresAt,
		User:        user.account(),
	}
}

// credentials はサインアップ・サインインのリクエストボディ。
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp はGoTrueにアカウント作成を依頼する。
func (s *Store) SignUp(ctx context.Context, email, password string) (model.Session, error) {
	var resp authResponse
	if err := s.client.PostJSON(ctx, "/auth/v1/signup", credentials{Email: email, Password: password}, &resp); err != nil {
		return model.Session{}, fmt.Errorf("サインアップに失敗: %w", translate(err, store.CodeValidation))
	}
	return resp.session(), nil
}

// SignIn はパスワードグラントでセッションを取得する。
func (s *Store) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	var resp authResponse
	err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/v1/token",
		Query:  url.Values{"grant_type": {"password"}},
		Body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return model.Session{}, fmt.Errorf("サインインに失敗: %w", translate(err, store.CodeInvalidCredentials))
	}
	return resp.session(), nil
}

// Identity はトークンのユーザーを取得し、usersテーブルの権限種別を反映する。
func (s *Store) Identity(ctx context.Context, token string) (model.Account, error) {
	if token == "" {
		return model.Account{}, store.Errorf(store.CodeInvalidSession, "Auth session missing!")
	}
	ctx = httpclient.WithBearerToken(ctx, token)

	var user authUser
	if err := s.client.GetJSON(ctx, "/auth/v1/user", nil, &user); err != nil {
		return model.Account{}, fmt.Errorf("ユーザー取得に失敗: %w", translate(err, store.CodeInvalidSession))
	}
	account := user.account()

	rows, err := s.ListAccounts(ctx, []string{user.ID})
	if err != nil {
		return model.Account{}, err
	}
	if len(rows) == 1 {
		account.Role = rows[0].Role
		if rows[0].FullName != nil {
			account.FullName = rows[0].FullName
		}
		if rows[0].AvatarURL != nil {
			account.AvatarURL = rows[0].AvatarURL
		}
	}
	return account, nil
}
