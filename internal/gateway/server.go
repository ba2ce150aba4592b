package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/blog/internal/model"
	"github.com/nao1215/blog/pkg/logger"
	"github.com/nao1215/blog/pkg/middleware"
)

// shutdownTimeout はグレースフルシャットダウンの待機時間。
const shutdownTimeout = 10 * time.Second

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
	// SecureCookie はセッションCookieにSecure属性を付けるかどうか。
	SecureCookie bool
}

// Server はブログゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// gateway はリソースゲートウェイ。
	gateway *Gateway
	// secureCookie はセッションCookieにSecure属性を付けるかどうか。
	secureCookie bool
}

// NewServer は新しいゲートウェイサーバーを生成する。
func NewServer(cfg ServerConfig, gw *Gateway) *Server {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:       router,
		port:         cfg.Port,
		gateway:      gw,
		secureCookie: cfg.SecureCookie,
	}
	s.setupRoutes()
	return s
}

// Handler はルーターをhttp.Handlerとして返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Default().WithField("addr", srv.Addr).Info("HTTPサーバーを起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Default().Info("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	identify := middleware.Identify(s.gateway.GetCurrentIdentity)

	api := s.router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			// 現在の呼び出し元
			auth.GET("", s.handleGetIdentity())
			// サインアップ・サインイン
			auth.POST("", s.handleAuthenticate())
			// サインアウト
			auth.DELETE("", s.handleSignOut())
		}

		posts := api.Group("/posts")
		{
			// 記事一覧取得
			posts.GET("", s.handleListPosts())
			// 記事作成
			posts.POST("", identify, s.handleCreatePost())
			// 記事詳細取得
			posts.GET("/:id", s.handleGetPost())
			// 記事更新
			posts.PUT("/:id", identify, s.handleUpdatePost())
			// 記事削除
			posts.DELETE("/:id", identify, s.handleDeletePost())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
}

// authRequest はサインアップ・サインインリクエストのJSON構造。
type authRequest struct {
	// Email はメールアドレス。
	Email string `json:"email"`
	// Password はパスワード。
	Password string `json:"password"`
	// Action は "signup" または "signin"。
	Action string `json:"action"`
}

// authMessages は認証操作ごとの成功メッセージ。
var authMessages = map[Mode]string{
	ModeSignUp: "User created successfully",
	ModeSignIn: "Signed in successfully",
}

// renderError はエラーをJSONレスポンスに変換する。
// 内部エラーは詳細をログにのみ出力し、固定のメッセージを返す。
func renderError(c *gin.Context, err error) {
	var ge *Error
	if !errors.As(err, &ge) {
		ge = &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
	}
	if ge.Kind == KindInternal {
		logger.FromContext(c.Request.Context()).WithError(ge.Err).Error("内部エラーが発生しました")
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgInternal})
		return
	}
	c.JSON(ge.Kind.Status(), gin.H{"error": ge.Message})
}

// requireCaller はIdentifyミドルウェアが解決した呼び出し元を返す。
// 解決できなかった場合はレスポンスを書き込み、falseを返す。
func requireCaller(c *gin.Context) (model.Caller, bool) {
	if caller, ok := middleware.GetCaller(c); ok {
		return caller, true
	}
	if err := middleware.IdentityError(c); err != nil && KindOf(err) == KindInternal {
		renderError(c, err)
		return model.Caller{}, false
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": MsgUnauthorized})
	return model.Caller{}, false
}

// handleGetIdentity は現在の呼び出し元の取得を処理するハンドラを返す。
// トークンが無い場合は匿名としてuserにnullを返す。
func (s *Server) handleGetIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.Token(c)
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}

		account, err := s.gateway.GetCurrentIdentity(c.Request.Context(), token)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": account})
	}
}

// handleAuthenticate はサインアップ・サインインを処理するハンドラを返す。
// セッションが発行された場合はトークンをCookieにも設定する。
func (s *Server) handleAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		mode := Mode(req.Action)
		session, err := s.gateway.AuthenticateOrRegister(c.Request.Context(), req.Email, req.Password, mode)
		if err != nil {
			renderError(c, err)
			return
		}

		if session.AccessToken != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(middleware.CookieName, session.AccessToken, int(session.ExpiresIn), "/", "", s.secureCookie, true)
		}

		c.JSON(http.StatusOK, gin.H{
			"message": authMessages[mode],
			"user":    session.User,
			"session": session,
		})
	}
}

// handleSignOut はセッションCookieの削除を処理するハンドラを返す。
func (s *Server) handleSignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.CookieName, "", -1, "/", "", s.secureCookie, true)
		c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
	}
}

// handleListPosts は記事一覧取得を処理するハンドラを返す。
// クエリ published=true の場合は公開済みの記事のみを返す。
func (s *Server) handleListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := model.PostFilter{PublishedOnly: c.Query("published") == "true"}

		posts, err := s.gateway.ListPosts(c.Request.Context(), filter)
		if err != nil {
			// ストアが拒否した場合は種類によらず400とする
			var ge *Error
			if errors.As(err, &ge) && ge.Kind != KindInternal {
				c.JSON(http.StatusBadRequest, gin.H{"error": ge.Message})
				return
			}
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": posts})
	}
}

// handleGetPost は記事詳細取得を処理するハンドラを返す。
func (s *Server) handleGetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := s.gateway.GetPost(c.Request.Context(), c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"post": post})
	}
}

// handleCreatePost は記事作成を処理するハンドラを返す。
// 著者は常に呼び出し元で、リクエストボディの author_id は無視する。
func (s *Server) handleCreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}

		var in model.PostInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		post, err := s.gateway.CreatePost(c.Request.Context(), caller, in)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
	}
}

// handleUpdatePost は記事更新を処理するハンドラを返す。
// 指定された項目だけを更新し、呼び出し元の記事でなければ400を返す。
func (s *Server) handleUpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}

		var patch model.PostPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		post, err := s.gateway.UpdatePost(c.Request.Context(), caller, c.Param("id"), patch)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
	}
}

// handleDeletePost は記事削除を処理するハンドラを返す。
func (s *Server) handleDeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}

		if err := s.gateway.DeletePost(c.Request.Context(), caller, c.Param("id")); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
	}
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
// 外部ストアに疎通できない場合は503を返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.gateway.Ping(c.Request.Context()); err != nil {
			logger.FromContext(c.Request.Context()).WithError(err).Warn("外部ストアへの疎通確認に失敗")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "blog"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "blog"})
	}
}
