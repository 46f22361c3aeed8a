// Package admin は管理パネル向けの統計とユーザー一覧を提供する。
package admin

import (
	"context"
	"fmt"

	"github.com/hitoshi/comicshelf/internal/authz"
	"github.com/hitoshi/comicshelf/internal/model"
	"github.com/hitoshi/comicshelf/internal/repository"
)

// Service は管理者専用の参照系ロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	statsRepo repository.StatsRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, statsRepo repository.StatsRepository) *Service {
	return &Service{
		userRepo:  userRepo,
		statsRepo: statsRepo,
	}
}

// Stats はカタログ全体の統計を返す。管理者のみ実行できる。
func (s *Service) Stats(ctx context.Context, actor *model.User) (*model.CatalogStats, error) {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return nil, model.NewForbiddenError()
	}
	stats, err := s.statsRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return stats, nil
}

// ListUsers は全ユーザーを所有コミック数付きで返す。管理者のみ実行できる。
func (s *Service) ListUsers(ctx context.Context, actor *model.User) ([]*model.UserWithComicCount, error) {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return nil, model.NewForbiddenError()
	}
	users, err := s.userRepo.ListWithComicCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
