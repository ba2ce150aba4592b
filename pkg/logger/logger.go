package logger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// contextKey はコンテキストキーの型。
type contextKey struct{}

// contextKeyEntry はコンテキストにログエントリを格納するためのキー。
var contextKeyEntry = contextKey{}

const (
	// fieldRequestID はリクエストIDのログフィールド名。
	fieldRequestID = "request_id"
	// fieldIdentity は呼び出し元アカウントIDのログフィールド名。
	fieldIdentity = "identity"
)

// Init はログレベルとフォーマッタを設定する。
// levelにはlogrusのレベル名（"debug", "info" 等）を指定する。
func Init(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("ログレベルが不正です: %w", err)
	}

	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	logrus.SetLevel(lvl)
	return nil
}

// Default はリクエストに紐づかないログエントリを返す。
func Default() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

// WithRequestID はリクエストIDを付与したログエントリをコンテキストに設定する。
// requestIDが空の場合は新しいUUIDを採番する。採番後のリクエストIDも返す。
func WithRequestID(ctx context.Context, requestID string) (context.Context, string) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	entry := Default().WithField(fieldRequestID, requestID)
	return context.WithValue(ctx, contextKeyEntry, entry), requestID
}

// WithIdentity はコンテキストのログエントリに呼び出し元アカウントIDを追加する。
func WithIdentity(ctx context.Context, accountID string) context.Context {
	entry := FromContext(ctx).WithField(fieldIdentity, accountID)
	return context.WithValue(ctx, contextKeyEntry, entry)
}

// FromContext はコンテキストに格納されたログエントリを返す。
// 格納されていない場合はデフォルトのエントリを返す。
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return Default()
	}
	if entry, ok := ctx.Value(contextKeyEntry).(*logrus.Entry); ok {
		return entry
	}
	return Default()
}

// RequestID はコンテキストのログエントリからリクエストIDを取り出す。
func RequestID(ctx context.Context) string {
	entry := FromContext(ctx)
	if id, ok := entry.Data[fieldRequestID].(string); ok {
		return id
	}
	return ""
}
