// Package supabase はホスティングされたSupabaseプロジェクトを外部ストアとして利用する。
//
// 認証はGoTrue（/auth/v1）、データはPostgREST（/rest/v1）経由で扱う。
// 書き込みは呼び出し元のトークンで送信し、Supabase側の行レベルセキュリティも適用させる。
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/httpclient"
)

// Store はSupabaseをバックエンドとする外部ストア。
type Store struct {
	// client はSupabaseへのHTTPクライアント。
	client *httpclient.Client
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New はSupabaseプロジェクトのURLと匿名キーからStoreを生成する。
func New(projectURL, anonKey string, opts ...httpclient.Option) (*Store, error) {
	if projectURL == "" || anonKey == "" {
		return nil, errors.New("SupabaseのURLと匿名キーが必要です")
	}
	opts = append([]httpclient.Option{
		httpclient.WithHeader("apikey", anonKey),
		httpclient.WithHeader("Authorization", "Bearer "+anonKey),
	}, opts...)

	return &Store{
		client: httpclient.New(strings.TrimSuffix(projectURL, "/"), opts...),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ping はGoTrueのヘルスチェックを呼び出す。
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.GetJSON(ctx, "/auth/v1/health", nil, nil); err != nil {
		return fmt.Errorf("Supabaseへの疎通確認に失敗: %w", err)
	}
	return nil
}

// Close は何もしない。HTTPクライアントは接続を保持し続けない。
func (s *Store) Close() error {
	return nil
}

// errorBody はGoTrueとPostgRESTのエラーレスポンス。どちらの形式も受け付ける。
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	Code             any    `json:"code"`
}

// text はエラーレスポンスから最も具体的なメッセージを返す。
func (b errorBody) text() string {
	for _, s := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// translate はHTTPエラーをストアエラーに変換する。
// 4xxはSupabaseが拒否したものとしてcodeに分類し、401はセッションエラーとする。
// 5xxと通信エラーは内部エラーとしてそのまま返す。
func translate(err error, code store.Code) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	if se.StatusCode >= http.StatusInternalServerError || se.StatusCode < http.StatusBadRequest {
		return err
	}

	var body errorBody
	_ = json.Unmarshal(se.Body, &body)
	msg := body.text()
	if msg == "" {
		msg = http.StatusText(se.StatusCode)
	}
	if se.StatusCode == http.StatusUnauthorized {
		return store.Errorf(store.CodeInvalidSession, "%s", msg)
	}
	return store.Errorf(code, "%s", msg)
}

// inList はPostgRESTの in.() フィルタ値を組み立てる。値は二重引用符で囲む。
func inList(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		quoted = append(quoted, `"`+strings.ReplaceAll(id, `"`, `\"`)+`"`)
	}
	if len(quoted) == 0 {
		return ""
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// returnRepresentation は書き込み結果の行を返させるヘッダー。
func returnRepresentation() http.Header {
	h := http.Header{}
	h.Set("Prefer", "return=representation")
	return h
}
