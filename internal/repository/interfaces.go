// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/comicshelf/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字は区別しない。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithToken はユーザーと初回トークンを同一トランザクションで作成する。
	// 途中で失敗した場合はユーザーもトークンも残らない。
	CreateWithToken(ctx context.Context, user *model.User, token *model.Token) error

	// ListWithComicCount は全ユーザーを所有コミック数付きで作成日時降順に返す。
	ListWithComicCount(ctx context.Context) ([]*model.UserWithComicCount, error)
}

// TokenRepository はBearerトークンの永続化インターフェース。
type TokenRepository interface {
	// FindByHash はトークンハッシュでトークンを検索する。見つからない場合はnilを返す。
	FindByHash(ctx context.Context, tokenHash string) (*model.Token, error)

	// ReplaceForUser は指定ユーザーの全トークンを削除し、新しいトークンを発行する。
	// 削除と挿入は同一トランザクションで行われ、失敗時はどちらも残らない。
	ReplaceForUser(ctx context.Context, userID string, token *model.Token) error

	// DeleteByID は指定IDのトークンを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ComicRepository はコミックデータの永続化インターフェース。
type ComicRepository interface {
	// FindByID は指定IDのコミックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comic, error)

	// FindByIDWithOwner は指定IDのコミックを所有者情報付きで取得する。
	// 見つからない場合はnilを返す。
	FindByIDWithOwner(ctx context.Context, id string) (*model.ComicWithOwner, error)

	// ListWithOwner は全コミックを所有者情報付きで作成日時降順に返す。
	// publishedOnlyがtrueの場合はpublishedのみに絞る。
	ListWithOwner(ctx context.Context, publishedOnly bool) ([]*model.ComicWithOwner, error)

	// ListByUserID は指定ユーザーが所有するコミックを作成日時降順に返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Comic, error)

	// Create はコミックを作成する。
	Create(ctx context.Context, comic *model.Comic) error

	// Update はコミックを上書き更新する。所有者は変更しない。
	Update(ctx context.Context, comic *model.Comic) error

	// DeleteByID は指定IDのコミックを削除する。対象が存在しない場合はエラーを返す。
	DeleteByID(ctx context.Context, id string) error
}

// StatsRepository は管理者向け統計の取得インターフェース。
type StatsRepository interface {
	// Stats はカタログ統計を単一トランザクション内で取得する。
	Stats(ctx context.Context) (*model.CatalogStats, error)
}
