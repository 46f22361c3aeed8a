// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには含めない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserWithComicCount はユーザーと所有コミック数を結合したモデル。
// 管理者のユーザー一覧でcomicsテーブルとLEFT JOINして取得される。
type UserWithComicCount struct {
	User
	ComicCount int
}

// Token はBearerトークンによるログインセッションを表す。
// TokenHashはトークン平文のSHA-256ダイジェスト。平文はDBに保存しない。
// 有効期限は持たず、ログアウトまたは次回ログインで失効する。
type Token struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
}
