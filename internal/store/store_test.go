package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	t.Run("ラップされたストアエラーからコードを取り出せること", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("記事更新に失敗: %w", Errorf(CodeNoMatch, MsgNoMatch))
		code, ok := CodeOf(err)
		if !ok {
			t.Fatal("CodeOf() が false を返した")
		}
		if code != CodeNoMatch {
			t.Errorf("code = %q, want %q", code, CodeNoMatch)
		}
	})

	t.Run("ストアエラー以外はfalseを返すこと", func(t *testing.T) {
		t.Parallel()

		if _, ok := CodeOf(errors.New("connection refused")); ok {
			t.Error("CodeOf() が true を返した")
		}
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := Errorf(CodeValidation, "duplicate slug %q", "hello")
	if got, want := err.Error(), `validation: duplicate slug "hello"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Message != `duplicate slug "hello"` {
		t.Errorf("Message = %q", err.Message)
	}
}
