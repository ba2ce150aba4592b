package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/blog/pkg/logger"
)

// defaultTimeout はリクエストのデフォルトタイムアウト。
const defaultTimeout = 30 * time.Second

// Client は外部サービス呼び出し用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
	// header は全リクエストに付与するヘッダー。
	header http.Header
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithHeader は全リクエストに付与するヘッダーを追加する。
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithTimeout はリクエストのタイムアウトを変更する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "https://xyz.supabase.co"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		header:  http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request は1回のJSONリクエストの内容。
type Request struct {
	// Method はHTTPメソッド。
	Method string
	// Path はベースURLからのパス。
	Path string
	// Query はクエリパラメータ。
	Query url.Values
	// Header はこのリクエストだけに付与するヘッダー。
	Header http.Header
	// Body はJSONにシリアライズするリクエストボディ。nilの場合は送信しない。
	Body any
}

// StatusError は2xx以外のステータスコードが返されたことを表す。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body []byte
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, string(e.Body))
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, result)
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

// Do はJSON形式のHTTPリクエストを実行する共通処理。
// resultがnilの場合やレスポンスボディが空の場合はデシリアライズしない。
func (c *Client) Do(ctx context.Context, r Request, result any) error {
	var bodyReader io.Reader
	if r.Body != nil {
		jsonBody, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	u := c.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}

	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// コンテキストから呼び出し元トークンとリクエストIDを伝播する
	if token, ok := ctx.Value(contextKeyBearerToken).(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyBearerToken はコンテキストに呼び出し元トークンを格納するためのキー。
const contextKeyBearerToken contextKey = "bearer_token"

// WithBearerToken はコンテキストに呼び出し元のトークンを設定する。
// 設定されたトークンは Authorization: Bearer ヘッダーとして送信される。
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyBearerToken, token)
}
