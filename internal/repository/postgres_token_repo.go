package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/comicshelf/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// FindByHash はトークンハッシュでトークンを検索する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.Token, error) {
	token := &model.Token{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, created_at
		 FROM tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return token, nil
}

// ReplaceForUser は指定ユーザーの全トークンを削除し、新しいトークンを発行する。
// 単一アクティブセッションポリシー: ログイン成功のたびに既存セッションは全て失効する。
func (r *PostgresTokenRepo) ReplaceForUser(ctx context.Context, userID string, token *model.Token) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke existing tokens: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, token_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.TokenHash, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteByID は指定IDのトークンを削除する。
func (r *PostgresTokenRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全トークンを削除する。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
