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

// postsPath はPostgRESTの記事テーブルのパス。
const postsPath = "/rest/v1/posts"

// postRow はpostsテーブルの行。著者IDのカラム名はuser_id。
type postRow struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Slug          string    `json:"slug"`
	Published     bool      `json:"published"`
	FeaturedImage *string   `json:"featured_image"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r postRow) post() model.Post {
	return model.Post{
		ID:            r.ID,
		AuthorID:      r.UserID,
		Title:         r.Title,
		Content:       r.Content,
		Slug:          r.Slug,
		Published:     r.Published,
		FeaturedImage: r.FeaturedImage,
		Tags:          model.NormalizeTags(r.Tags),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// insertRow は記事作成時に送信する行。
type insertRow struct {
	UserID        string   `json:"user_id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Slug          string   `json:"slug"`
	Published     bool     `json:"published"`
	FeaturedImage *string  `json:"featured_image"`
	Tags          []string `json:"tags"`
}

// ownedFilter は id と user_id の両方で絞り込むフィルタを返す。
func ownedFilter(caller model.Caller, id string) url.Values {
	return url.Values{
		"id":      {"eq." + id},
		"user_id": {"eq." + caller.Account.ID},
	}
}

// ListPosts は作成日時の降順で記事を返す。
func (s *Store) ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	}
	if filter.PublishedOnly {
		query.Set("published", "eq.true")
	}

	var rows []postRow
	if err := s.client.GetJSON(ctx, postsPath, query, &rows); err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗: %w", translate(err, store.CodeValidation))
	}

	posts := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.post())
	}
	return posts, nil
}

// GetPost はIDに一致する記事を返す。
func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	var rows []postRow
	query := url.Values{"select": {"*"}, "id": {"eq." + id}}
	if err := s.client.GetJSON(ctx, postsPath, query, &rows); err != nil {
		return model.Post{}, fmt.Errorf("記事の取得に失敗: %w", translate(err, store.CodeNotFound))
	}
	if len(rows) == 0 {
		return model.Post{}, store.Errorf(store.CodeNotFound, store.MsgPostNotFound)
	}
	return rows[0].post(), nil
}

// InsertPost は呼び出し元のトークンで記事を作成する。
func (s *Store) InsertPost(ctx context.Context, caller model.Caller, in model.PostInput) (model.Post, error) {
	ctx = httpclient.WithBearerToken(ctx, caller.AccessToken)

	var rows []postRow
	err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   postsPath,
		Header: returnRepresentation(),
		Body: []insertRow{{
			UserID:        caller.Account.ID,
			Title:         in.Title,
			Content:       in.Content,
			Slug:          in.Slug,
			Published:     in.Published,
			FeaturedImage: in.FeaturedImage,
			Tags:          model.NormalizeTags(in.Tags),
		}},
	}, &rows)
	if err != nil {
		return model.Post{}, fmt.Errorf("記事の作成に失敗: %w", translate(err, store.CodeValidation))
	}
	if len(rows) == 0 {
		return model.Post{}, fmt.Errorf("記事の作成結果が返されませんでした")
	}
	return rows[0].post(), nil
}

// patchBody は部分更新のボディを組み立てる。指定された項目だけを含む。
func (s *Store) patchBody(patch model.PostPatch) map[string]any {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Slug != nil {
		body["slug"] = *patch.Slug
	}
	if patch.Published != nil {
		body["published"] = *patch.Published
	}
	if patch.FeaturedImage.Set {
		body["featured_image"] = patch.FeaturedImage.Ptr()
	}
	if patch.Tags != nil {
		body["tags"] = model.NormalizeTags(*patch.Tags)
	}
	body["updated_at"] = s.now().Format(time.RFC3339Nano)
	return body
}

// UpdateOwnedPost は id と user_id の両方が一致する行だけを更新する。
func (s *Store) UpdateOwnedPost(ctx context.Context, caller model.Caller, id string, patch model.PostPatch) (model.Post, error) {
	if patch.IsEmpty() {
		return model.Post{}, store.Errorf(store.CodeValidation, "No fields to update")
	}
	ctx = httpclient.WithBearerToken(ctx, caller.AccessToken)

	var rows []postRow
	err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPatch,
		Path:   postsPath,
		Query:  ownedFilter(caller, id),
		Header: returnRepresentation(),
		Body:   s.patchBody(patch),
	}, &rows)
	if err != nil {
		return model.Post{}, fmt.Errorf("記事の更新に失敗: %w", translate(err, store.CodeValidation))
	}
	if len(rows) == 0 {
		return model.Post{}, store.Errorf(store.CodeNoMatch, store.MsgNoMatch)
	}
	return rows[0].post(), nil
}

// DeleteOwnedPost は id と user_id の両方が一致する行だけを削除する。
// 削除された行を返させ、0件であれば CodeNoMatch とする。
func (s *Store) DeleteOwnedPost(ctx context.Context, caller model.Caller, id string) error {
	ctx = httpclient.WithBearerToken(ctx, caller.AccessToken)

	var rows []postRow
	err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   postsPath,
		Query:  ownedFilter(caller, id),
		Header: returnRepresentation(),
	}, &rows)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗: %w", translate(err, store.CodeValidation))
	}
	if len(rows) == 0 {
		return store.Errorf(store.CodeNoMatch, store.MsgNoMatch)
	}
	return nil
}
