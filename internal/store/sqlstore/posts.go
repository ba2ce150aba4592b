package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// postColumns は記事の取得カラム。scanPostの順序と一致させること。
const postColumns = `id, author_id, title, content, slug, published, featured_image, tags, created_at, updated_at`

// scanPost はpostColumnsの順で記事を読み取る。
func scanPost(row rowScanner) (model.Post, error) {
	var (
		p             model.Post
		featuredImage sql.NullString
		tags          string
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Slug, &p.Published,
		&featuredImage, &tags, &createdAt, &updatedAt); err != nil {
		return model.Post{}, err
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return model.Post{}, fmt.Errorf("タグの解析に失敗: %w", err)
	}
	p.Tags = model.NormalizeTags(p.Tags)

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Post{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Post{}, err
	}
	p.FeaturedImage = nullString(featuredImage)
	return p, nil
}

// encodeTags はタグをJSON配列の文字列にする。
func encodeTags(tags []string) (string, error) {
	b, err := json.Marshal(model.NormalizeTags(tags))
	if err != nil {
		return "", fmt.Errorf("タグのシリアライズに失敗: %w", err)
	}
	return string(b), nil
}

// ListPosts は作成日時の降順で記事を返す。
func (s *Store) ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var args []any
	if filter.PublishedOnly {
		query += ` WHERE published = ?`
		args = append(args, true)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost はIDに一致する記事を返す。
func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, s.q(`SELECT `+postColumns+` FROM posts WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, store.Errorf(store.CodeNotFound, store.MsgPostNotFound)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("記事の取得に失敗: %w", err)
	}
	return p, nil
}

// InsertPost は呼び出し元を著者として記事を作成する。
func (s *Store) InsertPost(ctx context.Context, caller model.Caller, in model.PostInput) (model.Post, error) {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return model.Post{}, err
	}

	now, ts := s.timestamp()
	p := model.Post{
		ID:            uuid.New().String(),
		AuthorID:      caller.Account.ID,
		Title:         in.Title,
		Content:       in.Content,
		Slug:          in.Slug,
		Published:     in.Published,
		FeaturedImage: in.FeaturedImage,
		Tags:          model.NormalizeTags(in.Tags),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.AuthorID, p.Title, p.Content, p.Slug, p.Published, p.FeaturedImage, tags, ts, ts,
	); err != nil {
		if msg, ok := constraintMessage(err); ok {
			return model.Post{}, store.Errorf(store.CodeValidation, "%s", msg)
		}
		return model.Post{}, fmt.Errorf("記事の作成に失敗: %w", err)
	}
	return p, nil
}

// UpdateOwnedPost は指定項目だけを更新する。
// 条件は id と author_id の両方で、一致する行が無ければ CodeNoMatch を返す。
func (s *Store) UpdateOwnedPost(ctx context.Context, caller model.Caller, id string, patch model.PostPatch) (model.Post, error) {
	if patch.IsEmpty() {
		return model.Post{}, store.Errorf(store.CodeValidation, "No fields to update")
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.Slug != nil {
		set("slug", *patch.Slug)
	}
	if patch.Published != nil {
		set("published", *patch.Published)
	}
	if patch.FeaturedImage.Set {
		set("featured_image", patch.FeaturedImage.Ptr())
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return model.Post{}, err
		}
		set("tags", tags)
	}
	_, ts := s.timestamp()
	set("updated_at", ts)
	args = append(args, id, caller.Account.ID)

	query := `UPDATE posts SET ` + strings.Join(sets, ", ") +
		` WHERE id = ? AND author_id = ? RETURNING ` + postColumns
	p, err := scanPost(s.db.QueryRowContext(ctx, s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, store.Errorf(store.CodeNoMatch, store.MsgNoMatch)
	}
	if err != nil {
		if msg, ok := constraintMessage(err); ok {
			return model.Post{}, store.Errorf(store.CodeValidation, "%s", msg)
		}
		return model.Post{}, fmt.Errorf("記事の更新に失敗: %w", err)
	}
	return p, nil
}

// DeleteOwnedPost は id と author_id の両方が一致する記事を削除する。
// 一致する行が無ければ CodeNoMatch を返す。
func (s *Store) DeleteOwnedPost(ctx context.Context, caller model.Caller, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM posts WHERE id = ? AND author_id = ?`), id, caller.Account.ID)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return store.Errorf(store.CodeNoMatch, store.MsgNoMatch)
	}
	return nil
}
