package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// newCORSRouter はCORSミドルウェアを適用したテスト用ルーターを生成する。
func newCORSRouter(origins []string, called *bool) *gin.Engine {
	router := gin.New()
	router.Use(CORS(origins))
	handler := func(c *gin.Context) {
		if called != nil {
			*called = true
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/api/posts", handler)
	router.OPTIONS("/api/posts", handler)
	return router
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("許可されたオリジンにCORSヘッダーと資格情報の許可が設定されること", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:3000"}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		want := map[string]string{
			"Access-Control-Allow-Origin":      "http://localhost:3000",
			"Access-Control-Allow-Credentials": "true",
			"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
			"Access-Control-Allow-Headers":     "Authorization, Content-Type, X-Request-ID",
			"Access-Control-Expose-Headers":    HeaderRequestID,
			"Access-Control-Max-Age":           "86400",
		}
		for key, value := range want {
			if got := w.Header().Get(key); got != value {
				t.Errorf("%s = %q, want %q", key, got, value)
			}
		}
	})

	t.Run("許可されていないオリジンにはCORSヘッダーが設定されないこと", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:3000"}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty string", got)
		}
	})

	t.Run("空文字列のオリジン設定でOriginなしのリクエストを許可しないこと", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{""}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want empty string", got)
		}
	})

	t.Run("OPTIONSリクエストは204で中断されハンドラーが呼ばれないこと", func(t *testing.T) {
		t.Parallel()

		called := false
		router := newCORSRouter([]string{"http://localhost:3000"}, &called)
		req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if called {
			t.Error("OPTIONSリクエストでハンドラーが呼ばれるべきではない")
		}
	})

	t.Run("GETリクエストではハンドラーが実行されること", func(t *testing.T) {
		t.Parallel()

		called := false
		router := newCORSRouter(nil, &called)
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if !called {
			t.Error("GETリクエストでハンドラーが呼ばれるべき")
		}
	})
}
