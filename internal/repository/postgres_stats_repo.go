package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/comicshelf/internal/model"
)

// PostgresStatsRepo はPostgreSQLを使用した統計リポジトリ。
type PostgresStatsRepo struct {
	db *sql.DB
}

// NewPostgresStatsRepo はPostgresStatsRepoを生成する。
func NewPostgresStatsRepo(db *sql.DB) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db}
}

// Stats はカタログ統計を単一トランザクション内で取得する。
// 3つのカウントが同一スナップショットから得られることを保証する。
func (r *PostgresStatsRepo) Stats(ctx context.Context) (*model.CatalogStats, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &model.CatalogStats{}

	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM comics`).Scan(&stats.TotalComics); err != nil {
		return nil, fmt.Errorf("failed to count comics: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM comics WHERE status = 'published'`).Scan(&stats.PublishedComics); err != nil {
		return nil, fmt.Errorf("failed to count published comics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ StatsRepository = (*PostgresStatsRepo)(nil)
