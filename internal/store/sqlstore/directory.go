package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/blog/internal/model"
)

// accountColumns はアカウントの取得カラム。scanAccountの順序と一致させること。
const accountColumns = `id, email, full_name, avatar_url, role, created_at, updated_at`

// profileColumns はプロフィールの取得カラム。scanProfileの順序と一致させること。
const profileColumns = `id, account_id, username, bio, website, location, created_at, updated_at`

// rowScanner は *sql.Row と *sql.Rows の共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount はaccountColumnsの順でアカウントを読み取る。extraは末尾の追加カラム。
func (s *Store) scanAccount(row rowScanner, extra ...any) (model.Account, error) {
	var (
		a         model.Account
		fullName  sql.NullString
		avatarURL sql.NullString
		role      string
		createdAt string
		updatedAt string
	)
	dest := append([]any{&a.ID, &a.Email, &fullName, &avatarURL, &role, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Account{}, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Account{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Account{}, err
	}
	a.FullName = nullString(fullName)
	a.AvatarURL = nullString(avatarURL)
	a.Role = model.Role(role)
	return a, nil
}

// scanProfile はprofileColumnsの順でプロフィールを読み取る。
func scanProfile(row rowScanner) (model.Profile, error) {
	var (
		p                                model.Profile
		username, bio, website, location sql.NullString
		createdAt, updatedAt             string
	)
	if err := row.Scan(&p.ID, &p.AccountID, &username, &bio, &website, &location, &createdAt, &updatedAt); err != nil {
		return model.Profile{}, err
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Profile{}, err
	}
	p.Username = nullString(username)
	p.Bio = nullString(bio)
	p.Website = nullString(website)
	p.Location = nullString(location)
	return p, nil
}

// ListAccounts は指定IDのアカウントを返す。
func (s *Store) ListAccounts(ctx context.Context, ids []string) ([]model.Account, error) {
	args := uniqueIDs(ids)
	if len(args) == 0 {
		return []model.Account{}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+accountColumns+` FROM accounts WHERE id IN (`+placeholders(len(args))+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := make([]model.Account, 0, len(args))
	for rows.Next() {
		a, err := s.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("アカウントの読み取りに失敗: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListProfiles は指定アカウントIDのプロフィールを返す。
func (s *Store) ListProfiles(ctx context.Context, accountIDs []string) ([]model.Profile, error) {
	args := uniqueIDs(accountIDs)
	if len(args) == 0 {
		return []model.Profile{}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+profileColumns+` FROM profiles WHERE account_id IN (`+placeholders(len(args))+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("プロフィール一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	profiles := make([]model.Profile, 0, len(args))
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("プロフィールの読み取りに失敗: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
