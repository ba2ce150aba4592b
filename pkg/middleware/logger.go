package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/blog/pkg/logger"
)

// HeaderRequestID はリクエストIDを受け渡すHTTPヘッダー。
const HeaderRequestID = "X-Request-ID"

// Logger はリクエストIDを採番し、アクセスログを出力するGinミドルウェアを返す。
// クライアントが X-Request-ID を送信した場合はその値を引き継ぎ、レスポンスにも返す。
// 以降のハンドラーは logger.FromContext でリクエストIDつきのログエントリを取得できる。
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx, requestID := logger.WithRequestID(c.Request.Context(), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case status >= 500:
			entry.Error("リクエスト処理完了")
		case status >= 400:
			entry.Warn("リクエスト処理完了")
		default:
			entry.Info("リクエスト処理完了")
		}
	}
}
