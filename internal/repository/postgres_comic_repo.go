package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/comicshelf/internal/model"
)

// PostgresComicRepo はPostgreSQLを使用したコミックリポジトリ。
type PostgresComicRepo struct {
	db *sql.DB
}

// NewPostgresComicRepo はPostgresComicRepoを生成する。
func NewPostgresComicRepo(db *sql.DB) *PostgresComicRepo {
	return &PostgresComicRepo{db: db}
}

// comicColumns はcomicsテーブルのSELECT句。スキャン順序と対応する。
const comicColumns = `id, title, description, author, genre, COALESCE(image, ''), status, featured, price, user_id, created_at, updated_at`

// scanComic は1行をmodel.Comicにスキャンする。
func scanComic(row interface{ Scan(...any) error }, c *model.Comic) error {
	return row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Author, &c.Genre, &c.Image,
		&c.Status, &c.Featured, &c.Price, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
	)
}

// FindByID は指定IDのコミックを取得する。見つからない場合はnilを返す。
// UUID形式でないIDはクエリせずに未検出として扱う。
func (r *PostgresComicRepo) FindByID(ctx context.Context, id string) (*model.Comic, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	comic := &model.Comic{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+comicColumns+` FROM comics WHERE id = $1`,
		id,
	)
	err := scanComic(row, comic)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comic by ID: %w", err)
	}

	return comic, nil
}

// FindByIDWithOwner は指定IDのコミックを所有者情報付きで取得する。
// 見つからない場合はnilを返す。UUID形式でないIDはクエリせずに未検出として扱う。
func (r *PostgresComicRepo) FindByIDWithOwner(ctx context.Context, id string) (*model.ComicWithOwner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	c := &model.ComicWithOwner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT c.id, c.title, c.description, c.author, c.genre, COALESCE(c.image, ''),
		        c.status, c.featured, c.price, c.user_id, c.created_at, c.updated_at,
		        u.id, u.name
		 FROM comics c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.id = $1`,
		id,
	).Scan(
		&c.ID, &c.Title, &c.Description, &c.Author, &c.Genre, &c.Image,
		&c.Status, &c.Featured, &c.Price, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
		&c.Owner.ID, &c.Owner.Name,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comic with owner: %w", err)
	}

	return c, nil
}

// ListWithOwner は全コミックを所有者情報付きで作成日時降順に返す。
// publishedOnlyがtrueの場合はpublishedのみに絞る。
func (r *PostgresComicRepo) ListWithOwner(ctx context.Context, publishedOnly bool) ([]*model.ComicWithOwner, error) {
	query := `SELECT c.id, c.title, c.description, c.author, c.genre, COALESCE(c.image, ''),
	                 c.status, c.featured, c.price, c.user_id, c.created_at, c.updated_at,
	                 u.id, u.name
	          FROM comics c
	          JOIN users u ON u.id = c.user_id`
	if publishedOnly {
		query += ` WHERE c.status = 'published'`
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list comics: %w", err)
	}
	defer rows.Close()

	var comics []*model.ComicWithOwner
	for rows.Next() {
		c := &model.ComicWithOwner{}
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.Author, &c.Genre, &c.Image,
			&c.Status, &c.Featured, &c.Price, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comic: %w", err)
		}
		comics = append(comics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comics: %w", err)
	}

	return comics, nil
}

// ListByUserID は指定ユーザーが所有するコミックを作成日時降順に返す。
func (r *PostgresComicRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Comic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+comicColumns+` FROM comics WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user comics: %w", err)
	}
	defer rows.Close()

	var comics []*model.Comic
	for rows.Next() {
		comic := &model.Comic{}
		if err := scanComic(rows, comic); err != nil {
			return nil, fmt.Errorf("failed to scan comic: %w", err)
		}
		comics = append(comics, comic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comics: %w", err)
	}

	return comics, nil
}

// Create はコミックを作成する。
func (r *PostgresComicRepo) Create(ctx context.Context, comic *model.Comic) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comics (id, title, description, author, genre, image, status, featured, price, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)`,
		comic.ID, comic.Title, comic.Description, comic.Author, comic.Genre, comic.Image,
		comic.Status, comic.Featured, comic.Price, comic.UserID, comic.CreatedAt, comic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comic: %w", err)
	}
	return nil
}

// Update はコミックを上書き更新する。所有者は変更しない。
func (r *PostgresComicRepo) Update(ctx context.Context, comic *model.Comic) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comics
		 SET title = $2, description = $3, author = $4, genre = $5, image = NULLIF($6, ''),
		     status = $7, featured = $8, price = $9, updated_at = $10
		 WHERE id = $1`,
		comic.ID, comic.Title, comic.Description, comic.Author, comic.Genre, comic.Image,
		comic.Status, comic.Featured, comic.Price, comic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update comic: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comic not found: %s", comic.ID)
	}
	return nil
}

// DeleteByID は指定IDのコミックを削除する。対象が存在しない場合はエラーを返す。
func (r *PostgresComicRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comics WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete comic: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comic not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ComicRepository = (*PostgresComicRepo)(nil)
