package sqlstore

import (
	"context"
	"reflect"
	"testing"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// insertPost はテスト用の記事を作成するヘルパー関数。
func insertPost(t *testing.T, s *Store, caller model.Caller, slug string, published bool) model.Post {
	t.Helper()

	p, err := s.InsertPost(context.Background(), caller, model.PostInput{
		Title:     "タイトル " + slug,
		Content:   "本文 " + slug,
		Slug:      slug,
		Published: published,
	})
	if err != nil {
		t.Fatalf("テスト用記事の作成に失敗: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }

func TestInsertPost(t *testing.T) {
	t.Parallel()

	t.Run("作成した記事をGetPostで同じ内容で取得できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")
		ctx := context.Background()

		created, err := s.InsertPost(ctx, caller, model.PostInput{
			Title:         "はじめての投稿",
			Content:       "こんにちは",
			Slug:          "hello-world",
			Published:     true,
			FeaturedImage: strPtr("https://example.com/cover.png"),
			Tags:          []string{"go", "blog", "go"},
		})
		if err != nil {
			t.Fatalf("InsertPost() でエラーが発生: %v", err)
		}
		if created.ID == "" {
			t.Fatal("IDが採番されていない")
		}
		if created.AuthorID != caller.Account.ID {
			t.Errorf("AuthorID = %q, want %q", created.AuthorID, caller.Account.ID)
		}

		got, err := s.GetPost(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetPost() でエラーが発生: %v", err)
		}
		if !reflect.DeepEqual(got, created) {
			t.Errorf("GetPost() = %+v, want %+v", got, created)
		}
		if !reflect.DeepEqual(got.Tags, []string{"go", "blog"}) {
			t.Errorf("Tags = %v, want [go blog]", got.Tags)
		}
	})

	t.Run("タグ未指定の場合は空配列になること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")

		p := insertPost(t, s, caller, "no-tags", false)
		got, err := s.GetPost(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("GetPost() でエラーが発生: %v", err)
		}
		if got.Tags == nil || len(got.Tags) != 0 {
			t.Errorf("Tags = %#v, want []string{}", got.Tags)
		}
		if got.Published {
			t.Error("Published = true, want false")
		}
		if got.FeaturedImage != nil {
			t.Errorf("FeaturedImage = %q, want nil", *got.FeaturedImage)
		}
	})

	t.Run("重複したスラッグは検証エラーになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")

		insertPost(t, s, caller, "dup", false)
		_, err := s.InsertPost(context.Background(), caller, model.PostInput{Title: "t", Content: "c", Slug: "dup"})
		wantCode(t, err, store.CodeValidation)
	})
}

func TestGetPost(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.GetPost(context.Background(), "missing")
	wantCode(t, err, store.CodeNotFound)
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	t.Run("作成日時の降順で返すこと", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")

		first := insertPost(t, s, caller, "first", true)
		second := insertPost(t, s, caller, "second", false)
		third := insertPost(t, s, caller, "third", true)

		posts, err := s.ListPosts(context.Background(), model.PostFilter{})
		if err != nil {
			t.Fatalf("ListPosts() でエラーが発生: %v", err)
		}
		var ids []string
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		want := []string{third.ID, second.ID, first.ID}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("順序 = %v, want %v", ids, want)
		}
	})

	t.Run("公開済みのみの絞り込み", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")

		insertPost(t, s, caller, "draft", false)
		published := insertPost(t, s, caller, "published", true)

		posts, err := s.ListPosts(context.Background(), model.PostFilter{PublishedOnly: true})
		if err != nil {
			t.Fatalf("ListPosts() でエラーが発生: %v", err)
		}
		if len(posts) != 1 || posts[0].ID != published.ID {
			t.Errorf("posts = %+v, want [%s]", posts, published.ID)
		}
	})

	t.Run("記事が無い場合は空スライスを返すこと", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		posts, err := s.ListPosts(context.Background(), model.PostFilter{PublishedOnly: true})
		if err != nil {
			t.Fatalf("ListPosts() でエラーが発生: %v", err)
		}
		if posts == nil || len(posts) != 0 {
			t.Errorf("posts = %#v, want empty slice", posts)
		}
	})
}

func TestUpdateOwnedPost(t *testing.T) {
	t.Parallel()

	t.Run("指定した項目だけが更新されること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")
		p := insertPost(t, s, caller, "post", false)

		published := true
		tags := []string{"news", "news", "go"}
		updated, err := s.UpdateOwnedPost(context.Background(), caller, p.ID, model.PostPatch{
			Published:     &published,
			FeaturedImage: model.NullableOf("https://example.com/new.png"),
			Tags:          &tags,
		})
		if err != nil {
			t.Fatalf("UpdateOwnedPost() でエラーが発生: %v", err)
		}
		if !updated.Published {
			t.Error("Published = false, want true")
		}
		if updated.Title != p.Title || updated.Content != p.Content || updated.Slug != p.Slug {
			t.Errorf("未指定の項目が変更された: %+v", updated)
		}
		if updated.FeaturedImage == nil || *updated.FeaturedImage != "https://example.com/new.png" {
			t.Errorf("FeaturedImage = %v", updated.FeaturedImage)
		}
		if !reflect.DeepEqual(updated.Tags, []string{"news", "go"}) {
			t.Errorf("Tags = %v, want [news go]", updated.Tags)
		}
		if updated.AuthorID != caller.Account.ID {
			t.Errorf("AuthorID = %q, want %q", updated.AuthorID, caller.Account.ID)
		}
		if !updated.UpdatedAt.After(p.UpdatedAt) {
			t.Errorf("UpdatedAt が更新されていない: %v <= %v", updated.UpdatedAt, p.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(p.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, p.CreatedAt)
		}
	})

	t.Run("nullでアイキャッチ画像を消去できること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")

		p, err := s.InsertPost(context.Background(), caller, model.PostInput{
			Title: "t", Content: "c", Slug: "with-image", FeaturedImage: strPtr("https://example.com/a.png"),
		})
		if err != nil {
			t.Fatalf("InsertPost() でエラーが発生: %v", err)
		}

		updated, err := s.UpdateOwnedPost(context.Background(), caller, p.ID, model.PostPatch{
			FeaturedImage: model.Null[string](),
		})
		if err != nil {
			t.Fatalf("UpdateOwnedPost() でエラーが発生: %v", err)
		}
		if updated.FeaturedImage != nil {
			t.Errorf("FeaturedImage = %q, want nil", *updated.FeaturedImage)
		}
	})

	t.Run("他人の記事と存在しない記事は同じエラーになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		owner := signUp(t, s, "owner@example.com")
		other := signUp(t, s, "other@example.com")
		p := insertPost(t, s, owner, "owned", false)

		title := "乗っ取り"
		_, errForeign := s.UpdateOwnedPost(context.Background(), other, p.ID, model.PostPatch{Title: &title})
		wantCode(t, errForeign, store.CodeNoMatch)

		_, errMissing := s.UpdateOwnedPost(context.Background(), other, "missing", model.PostPatch{Title: &title})
		wantCode(t, errMissing, store.CodeNoMatch)

		if errForeign.Error() != errMissing.Error() {
			t.Errorf("メッセージが異なる: %q != %q", errForeign.Error(), errMissing.Error())
		}

		got, err := s.GetPost(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("GetPost() でエラーが発生: %v", err)
		}
		if got.Title != p.Title {
			t.Errorf("他人によって記事が変更された: Title = %q", got.Title)
		}
	})

	t.Run("空の更新は検証エラーになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")
		p := insertPost(t, s, caller, "post", false)

		_, err := s.UpdateOwnedPost(context.Background(), caller, p.ID, model.PostPatch{})
		wantCode(t, err, store.CodeValidation)
	})

	t.Run("スラッグの重複は検証エラーになること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")
		insertPost(t, s, caller, "taken", false)
		p := insertPost(t, s, caller, "mine", false)

		slug := "taken"
		_, err := s.UpdateOwnedPost(context.Background(), caller, p.ID, model.PostPatch{Slug: &slug})
		wantCode(t, err, store.CodeValidation)
	})
}

func TestDeleteOwnedPost(t *testing.T) {
	t.Parallel()

	t.Run("削除した記事は取得できなくなること", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		caller := signUp(t, s, "author@example.com")
		p := insertPost(t, s, caller, "bye", true)

		if err := s.DeleteOwnedPost(context.Background(), caller, p.ID); err != nil {
			t.Fatalf("DeleteOwnedPost() でエラーが発生: %v", err)
		}
		_, err := s.GetPost(context.Background(), p.ID)
		wantCode(t, err, store.CodeNotFound)

		err = s.DeleteOwnedPost(context.Background(), caller, p.ID)
		wantCode(t, err, store.CodeNoMatch)
	})

	t.Run("他人の記事は削除できないこと", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		owner := signUp(t, s, "owner@example.com")
		other := signUp(t, s, "other@example.com")
		p := insertPost(t, s, owner, "keep", true)

		err := s.DeleteOwnedPost(context.Background(), other, p.ID)
		wantCode(t, err, store.CodeNoMatch)

		if _, err := s.GetPost(context.Background(), p.ID); err != nil {
			t.Errorf("記事が削除された: %v", err)
		}
	})
}

func TestListAccountsAndProfiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	a := signUp(t, s, "a@example.com")
	b := signUp(t, s, "b@example.com")
	ctx := context.Background()

	accounts, err := s.ListAccounts(ctx, []string{a.Account.ID, b.Account.ID, a.Account.ID, "missing", ""})
	if err != nil {
		t.Fatalf("ListAccounts() でエラーが発生: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("アカウント件数 = %d, want 2", len(accounts))
	}

	profiles, err := s.ListProfiles(ctx, []string{b.Account.ID})
	if err != nil {
		t.Fatalf("ListProfiles() でエラーが発生: %v", err)
	}
	if len(profiles) != 1 || profiles[0].AccountID != b.Account.ID {
		t.Errorf("profiles = %+v", profiles)
	}

	empty, err := s.ListAccounts(ctx, nil)
	if err != nil {
		t.Fatalf("ListAccounts(nil) でエラーが発生: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("アカウント件数 = %d, want 0", len(empty))
	}
}
