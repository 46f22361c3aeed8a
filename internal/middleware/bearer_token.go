// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/comicshelf/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey  = contextKey("user")
	tokenContextKey = contextKey("token")
)

// UserResolver はBearerトークンからユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type UserResolver interface {
	CurrentUser(ctx context.Context, plainToken string) (*model.User, *model.Token, error)
}

// NewBearerTokenMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 解決したユーザーとトークンをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが欠落・無効な場合は401 Unauthenticatedを返す。
func NewBearerTokenMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plain := extractBearerToken(r)
			if plain == "" {
				writeUnauthenticated(w)
				return
			}

			user, token, err := resolver.CurrentUser(r.Context(), plain)
			if err != nil {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					slog.Error("failed to resolve bearer token",
						slog.String("error", err.Error()),
					)
				}
				writeUnauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken はAuthorizationヘッダーからBearerトークンの平文を取り出す。
// スキームの比較は大文字小文字を区別しない。
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeUnauthenticated は401レスポンスを書き込む。
func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Unauthenticated.",
	})
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// Bearerトークンミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// TokenFromContext はリクエストコンテキストから現在のトークンを取得する。
func TokenFromContext(ctx context.Context) (*model.Token, error) {
	token, ok := ctx.Value(tokenContextKey).(*model.Token)
	if !ok || token == nil {
		return nil, fmt.Errorf("token not found in context")
	}
	return token, nil
}

// ContextWithUser はコンテキストにユーザーとトークンを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User, token *model.Token) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}
