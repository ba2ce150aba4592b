package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// accountRow はpublic.usersテーブルの行。
type accountRow struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  *string    `json:"full_name"`
	AvatarURL *string    `json:"avatar_url"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// profileRow はprofilesテーブルの行。所有アカウントのカラム名はuser_id。
type profileRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  *string   `json:"username"`
	Bio       *string   `json:"bio"`
	Website   *string   `json:"website"`
	Location  *string   `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListAccounts は指定IDのアカウントをusersテーブルから返す。
func (s *Store) ListAccounts(ctx context.Context, ids []string) ([]model.Account, error) {
	filter := inList(ids)
	if filter == "" {
		return []model.Account{}, nil
	}

	var rows []accountRow
	query := url.Values{"select": {"id,email,full_name,avatar_url,role,created_at,updated_at"}, "id": {filter}}
	if err := s.client.GetJSON(ctx, "/rest/v1/users", query, &rows); err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗: %w", translate(err, store.CodeValidation))
	}

	accounts := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		role := r.Role
		if role == "" {
			role = model.RoleUser
		}
		accounts = append(accounts, model.Account{
			ID:        r.ID,
			Email:     r.Email,
			FullName:  r.FullName,
			AvatarURL: r.AvatarURL,
			Role:      role,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return accounts, nil
}

// ListProfiles は指定アカウントIDのプロフィールを返す。
func (s *Store) ListProfiles(ctx context.Context, accountIDs []string) ([]model.Profile, error) {
	filter := inList(accountIDs)
	if filter == "" {
		return []model.Profile{}, nil
	}

	var rows []profileRow
	query := url.Values{"select": {"*"}, "user_id": {filter}}
	if err := s.client.GetJSON(ctx, "/rest/v1/profiles", query, &rows); err != nil {
		return nil, fmt.Errorf("プロフィール一覧の取得に失敗: %w", translate(err, store.CodeValidation))
	}

	profiles := make([]model.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, model.Profile{
			ID:        r.ID,
			AccountID: r.UserID,
			Username:  r.Username,
			Bio:       r.Bio,
			Website:   r.Website,
			Location:  r.Location,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return profiles, nil
}
