// Package middleware はブログゲートウェイのGinミドルウェアを提供する。
//
// リクエストログとリクエストIDの採番、パニックリカバリ、CORS設定、
// アクセストークンからの呼び出し元の解決を含む。
package middleware
