package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/pkg/logger"
)

// CookieName はセッショントークンを保持するCookie名。
const CookieName = "blog-access-token"

const (
	// contextKeyCaller はGinコンテキストに呼び出し元を格納するためのキー。
	contextKeyCaller = "caller"
	// contextKeyIdentityError はトークン解決に失敗した理由を格納するためのキー。
	contextKeyIdentityError = "identity_error"
)

// ResolveFunc はアクセストークンからアカウントを解決する関数。
type ResolveFunc func(ctx context.Context, token string) (model.Account, error)

// Token はリクエストからアクセストークンを取り出す。
// Authorization: Bearer ヘッダーを優先し、無ければセッションCookieを参照する。
func Token(c *gin.Context) string {
	if token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// Identify はアクセストークンから呼び出し元を解決するGinミドルウェアを返す。
// トークンが無い、または解決に失敗した場合もリクエストは中断せず、匿名として扱う。
// 認証が必要かどうかはハンドラーが GetCaller で判断する。
func Identify(resolve ResolveFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := Token(c)
		if token == "" {
			c.Next()
			return
		}

		account, err := resolve(c.Request.Context(), token)
		if err != nil {
			logger.FromContext(c.Request.Context()).WithError(err).Debug("呼び出し元の解決に失敗")
			c.Set(contextKeyIdentityError, err)
			c.Next()
			return
		}

		c.Set(contextKeyCaller, model.Caller{Account: account, AccessToken: token})
		c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), account.ID))
		c.Next()
	}
}

// GetCaller はGinコンテキストから呼び出し元を取得する。
// Identifyミドルウェアが事前に適用され、トークンが解決できた場合だけtrueを返す。
func GetCaller(c *gin.Context) (model.Caller, bool) {
	v, _ := c.Get(contextKeyCaller)
	caller, ok := v.(model.Caller)
	return caller, ok
}

// IdentityError はトークンの解決に失敗した理由を返す。失敗していなければnil。
func IdentityError(c *gin.Context) error {
	v, _ := c.Get(contextKeyIdentityError)
	err, _ := v.(error)
	return err
}
