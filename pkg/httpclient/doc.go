// Package httpclient は外部サービスのJSON APIを呼び出すHTTPクライアントを提供する。
//
// 共通ヘッダー（APIキー等）の付与、呼び出し元トークンとリクエストIDの伝播、
// 2xx以外のレスポンスの StatusError への変換を担う。
package httpclient
