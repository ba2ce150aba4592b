package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Post はブログ記事。
type Post struct {
	// ID は記事の一意識別子。
	ID string `json:"id"`
	// AuthorID は記事を作成したアカウントのID。作成後は変更されない。
	AuthorID string `json:"author_id"`
	// Title はタイトル。
	Title string `json:"title"`
	// Content は本文。
	Content string `json:"content"`
	// Slug はURL用の一意な識別文字列。
	Slug string `json:"slug"`
	// Published は公開済みかどうか。falseの場合は下書き。
	Published bool `json:"published"`
	// FeaturedImage はアイキャッチ画像のURL。
	FeaturedImage *string `json:"featured_image"`
	// Tags はタグの集合。
	Tags []string `json:"tags"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
	// Author は著者情報。読み取り時にゲートウェイが結合する。
	Author *Author `json:"author,omitempty"`
}

// Author は記事に埋め込む著者の公開情報。
type Author struct {
	// ID はアカウントID。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// FullName は表示名。
	FullName *string `json:"full_name"`
	// AvatarURL はアバター画像のURL。
	AvatarURL *string `json:"avatar_url"`
	// Profile は著者のプロフィール。存在しない場合はnull。
	Profile *AuthorProfile `json:"profile"`
}

// AuthorProfile は著者情報に埋め込むプロフィール項目。
type AuthorProfile struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
	Location *string `json:"location"`
}

// PostFilter は記事一覧の絞り込み条件。
type PostFilter struct {
	// PublishedOnly がtrueの場合は公開済みの記事のみを返す。
	PublishedOnly bool
}

// PostInput は記事作成時に呼び出し元が指定できる項目。
// 著者IDは含まない。常に呼び出し元から設定する。
type PostInput struct {
	Title         string   `json:"title" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	Slug          string   `json:"slug" binding:"required"`
	Published     bool     `json:"published"`
	FeaturedImage *string  `json:"featured_image"`
	Tags          []string `json:"tags"`
}

// PostPatch は記事更新時の部分更新項目。nilの項目は変更しない。
type PostPatch struct {
	Title         *string          `json:"title"`
	Content       *string          `json:"content"`
	Slug          *string          `json:"slug"`
	Published     *bool            `json:"published"`
	FeaturedImage Nullable[string] `json:"featured_image"`
	Tags          *[]string        `json:"tags"`
}

// IsEmpty は更新項目が1つも指定されていないかを返す。
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Slug == nil &&
		p.Published == nil && !p.FeaturedImage.Set && p.Tags == nil
}

// Nullable はJSONで「未指定」と「null」を区別する値。
type Nullable[T any] struct {
	// Set はJSONにキーが存在したかどうか。
	Set bool
	// Valid は値がnullでないかどうか。
	Valid bool
	// Value は値。Validがfalseの場合はゼロ値。
	Value T
}

// NullableOf は値を持つNullableを返す。
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null は明示的なnullを表すNullableを返す。
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Ptr は値をポインタとして返す。nullの場合はnil。
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// UnmarshalJSON はキーが存在した場合のみ呼ばれるため、Setを立てる。
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON は値またはnullを出力する。
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// NormalizeTags はタグを集合として扱えるよう、空文字と重複を除いて先に現れた順序で返す。
// nilの場合は空スライスを返す。
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
