// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"sort"
)

// APIError は統一エラーフォーマットを表す。
// サービス層が返し、ハンドラー層でHTTPステータスコードにマッピングされる。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeNoSession          = "NO_SESSION"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeComicNotFound      = "COMIC_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// ValidationError はフィールド単位のバリデーションエラーを表す。
// HTTP 422で {"message": ..., "errors": {field: [messages]}} として返される。
type ValidationError struct {
	Fields map[string][]string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %d field(s) failed validation", ErrCodeValidationFailed, len(e.Fields))
}

// NewValidationError は空のValidationErrorを生成する。
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add はフィールドにエラーメッセージを追加する。
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors は1件以上のフィールドエラーを保持しているかを返す。
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// FirstMessage はフィールド名の辞書順で最初のエラーメッセージを返す。
// レスポンスのトップレベルmessageとして使用する。
func (e *ValidationError) FirstMessage() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if len(e.Fields[field]) > 0 {
			return e.Fields[field][0]
		}
	}
	return "The given data was invalid."
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無を漏らさないよう、メッセージは常に同一。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "The provided credentials are incorrect.",
	}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthenticated,
		Message: "Unauthenticated.",
	}
}

// NewNoSessionError はアクティブなセッションが存在しない場合のエラーを生成する。
func NewNoSessionError() *APIError {
	return &APIError{
		Code:    ErrCodeNoSession,
		Message: "No active session found",
	}
}

// NewForbiddenError は認可エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "Unauthorized",
	}
}

// NewComicNotFoundError はコミック未検出エラーを生成する。
func NewComicNotFoundError(comicID string) *APIError {
	return &APIError{
		Code:    ErrCodeComicNotFound,
		Message: fmt.Sprintf("Comic not found: %s", comicID),
	}
}
