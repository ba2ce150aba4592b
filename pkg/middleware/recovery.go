package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/blog/pkg/logger"
)

// MsgInternal は内部エラー時にクライアントへ返すメッセージ。詳細はログにのみ出力する。
const MsgInternal = "Internal server error"

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にスタックトレースをログに出力し、500エラーを返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  r,
				}).Errorf("パニックから回復しました\n%s", debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": MsgInternal,
				})
			}
		}()
		c.Next()
	}
}
