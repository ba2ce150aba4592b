package gateway

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/internal/store"
)

// Mode は認証操作の種類。
type Mode string

const (
	// ModeSignUp はアカウントを作成する。
	ModeSignUp Mode = "signup"
	// ModeSignIn は既存アカウントでサインインする。
	ModeSignIn Mode = "signin"
)

// ゲートウェイが返すメッセージ。
const (
	MsgAuthSessionMissing = "Auth session missing!"
	MsgInvalidAction      = "Invalid action"
	MsgUnauthorized       = "Unauthorized"
	MsgNoFieldsToUpdate   = "No fields to update"
	MsgRequiredFields     = "Title, content and slug are required"
)

// Gateway は呼び出し元で絞り込んだストア操作を提供する。
// 呼び出し元は必ず引数で明示的に受け取り、暗黙の状態を持たない。
type Gateway struct {
	// store は外部ストア。
	store store.Store
}

// New は新しいGatewayを生成する。
func New(st store.Store) *Gateway {
	return &Gateway{store: st}
}

// Ping は外部ストアへの疎通を確認する。
func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

// GetCurrentIdentity はトークンに対応するアカウントを返す。
func (g *Gateway) GetCurrentIdentity(ctx context.Context, token string) (model.Account, error) {
	if token == "" {
		return model.Account{}, newError(KindUnauthenticated, MsgAuthSessionMissing)
	}
	account, err := g.store.Identity(ctx, token)
	if err != nil {
		return model.Account{}, fromStore("呼び出し元の解決", err)
	}
	return account, nil
}

// AuthenticateOrRegister はmodeに応じてアカウントを作成するか、サインインする。
func (g *Gateway) AuthenticateOrRegister(ctx context.Context, email, password string, mode Mode) (model.Session, error) {
	email = strings.TrimSpace(email)

	var (
		session model.Session
		err     error
	)
	switch mode {
	case ModeSignUp:
		session, err = g.store.SignUp(ctx, email, password)
	case ModeSignIn:
		session, err = g.store.SignIn(ctx, email, password)
	default:
		return model.Session{}, newError(KindBadRequest, MsgInvalidAction)
	}
	if err != nil {
		return model.Session{}, fromStore(string(mode), err)
	}
	return session, nil
}

// ListPosts は著者情報つきの記事を作成日時の降順で返す。
// filter.PublishedOnly がfalseの場合は呼び出し元に関係なく下書きも含める。
func (g *Gateway) ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	posts, err := g.store.ListPosts(ctx, filter)
	if err != nil {
		return nil, fromStore("記事一覧の取得", err)
	}
	if err := g.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost は著者情報つきの記事を1件返す。
func (g *Gateway) GetPost(ctx context.Context, id string) (model.Post, error) {
	if strings.TrimSpace(id) == "" {
		return model.Post{}, newError(KindNotFound, store.MsgPostNotFound)
	}
	post, err := g.store.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, fromStore("記事の取得", err)
	}
	return g.withAuthor(ctx, post)
}

// CreatePost は呼び出し元を著者として記事を作成する。
func (g *Gateway) CreatePost(ctx context.Context, caller model.Caller, in model.PostInput) (model.Post, error) {
	if caller.Account.ID == "" {
		return model.Post{}, newError(KindUnauthenticated, MsgUnauthorized)
	}
	if blank(in.Title) || blank(in.Content) || blank(in.Slug) {
		return model.Post{}, newError(KindValidation, MsgRequiredFields)
	}
	in.Tags = model.NormalizeTags(in.Tags)

	post, err := g.store.InsertPost(ctx, caller, in)
	if err != nil {
		return model.Post{}, fromStore("記事の作成", err)
	}
	return g.withAuthor(ctx, post)
}

// UpdatePost は呼び出し元が所有する記事の指定項目だけを更新する。
// 記事が存在しない場合と他人の記事である場合は区別しない。
func (g *Gateway) UpdatePost(ctx context.Context, caller model.Caller, id string, patch model.PostPatch) (model.Post, error) {
	if caller.Account.ID == "" {
		return model.Post{}, newError(KindUnauthenticated, MsgUnauthorized)
	}
	if patch.IsEmpty() {
		return model.Post{}, newError(KindValidation, MsgNoFieldsToUpdate)
	}
	if (patch.Title != nil && blank(*patch.Title)) ||
		(patch.Content != nil && blank(*patch.Content)) ||
		(patch.Slug != nil && blank(*patch.Slug)) {
		return model.Post{}, newError(KindValidation, MsgRequiredFields)
	}
	if patch.Tags != nil {
		tags := model.NormalizeTags(*patch.Tags)
		patch.Tags = &tags
	}

	post, err := g.store.UpdateOwnedPost(ctx, caller, id, patch)
	if err != nil {
		return model.Post{}, fromStore("記事の更新", err)
	}
	return g.withAuthor(ctx, post)
}

// DeletePost は呼び出し元が所有する記事を削除する。
func (g *Gateway) DeletePost(ctx context.Context, caller model.Caller, id string) error {
	if caller.Account.ID == "" {
		return newError(KindUnauthenticated, MsgUnauthorized)
	}
	if err := g.store.DeleteOwnedPost(ctx, caller, id); err != nil {
		return fromStore("記事の削除", err)
	}
	return nil
}

// withAuthor は1件の記事に著者情報を結合する。
func (g *Gateway) withAuthor(ctx context.Context, post model.Post) (model.Post, error) {
	posts := []model.Post{post}
	if err := g.attachAuthors(ctx, posts); err != nil {
		return model.Post{}, err
	}
	return posts[0], nil
}

// attachAuthors は記事の著者のアカウントとプロフィールを並行に読み込み、結合する。
// アカウントが見つからない著者の記事には著者情報を付けない。
func (g *Gateway) attachAuthors(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}

	var (
		accounts []model.Account
		profiles []model.Profile
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		accounts, err = g.store.ListAccounts(egCtx, ids)
		return err
	})
	eg.Go(func() error {
		var err error
		profiles, err = g.store.ListProfiles(egCtx, ids)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fromStore("著者情報の取得", err)
	}

	profileByAccount := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		profileByAccount[p.AccountID] = p
	}
	authors := make(map[string]*model.Author, len(accounts))
	for _, a := range accounts {
		author := &model.Author{
			ID:        a.ID,
			Email:     a.Email,
			FullName:  a.FullName,
			AvatarURL: a.AvatarURL,
		}
		if p, ok := profileByAccount[a.ID]; ok {
			author.Profile = &model.AuthorProfile{
				Username: p.Username,
				Bio:      p.Bio,
				Website:  p.Website,
				Location: p.Location,
			}
		}
		authors[a.ID] = author
	}

	for i := range posts {
		posts[i].Author = authors[posts[i].AuthorID]
	}
	return nil
}

// blank は文字列が空白だけで構成されているかを返す。
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
