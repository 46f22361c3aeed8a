// Package comic はコミックカタログのCRUDビジネスロジックを提供する。
package comic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/comicshelf/internal/authz"
	"github.com/hitoshi/comicshelf/internal/model"
	"github.com/hitoshi/comicshelf/internal/repository"
	"github.com/hitoshi/comicshelf/internal/security"
)

// MetricsRecorder はコミック作成イベントのメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordComicCreated()
}

// ServiceConfig はコミックサービスの設定。
type ServiceConfig struct {
	// PublicListPublishedOnly がtrueの場合、公開一覧をpublishedのみに絞る。
	// falseの場合はステータスを問わず全件返す（従来互換の挙動）。
	PublicListPublishedOnly bool
}

// Service はコミックに関するビジネスロジックを提供する。
// 所有者・管理者の認可判定はサービス層で行い、トランスポートに依存しない。
type Service struct {
	comicRepo repository.ComicRepository
	sanitizer security.DescriptionSanitizerService
	imageURL  security.ImageURLValidator
	metrics   MetricsRecorder
	config    ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	comicRepo repository.ComicRepository,
	sanitizer security.DescriptionSanitizerService,
	imageURL security.ImageURLValidator,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		comicRepo: comicRepo,
		sanitizer: sanitizer,
		imageURL:  imageURL,
		metrics:   metrics,
		config:    config,
	}
}

// Input は一般ユーザーが編集できるコミックのフィールド。
type Input struct {
	Title       string
	Description string
	Author      string
	Genre       string
	Image       string
}

// AdminInput は管理者のみが編集できるフィールドを含む入力。
type AdminInput struct {
	Input
	Status   string
	Featured bool
	Price    float64
}

const maxFieldLength = 255

// validate は共通フィールドの制約を検証する。
func validate(input Input, imageURL security.ImageURLValidator) *model.ValidationError {
	verr := model.NewValidationError()

	if input.Title == "" {
		verr.Add("title", "The title field is required.")
	} else if len(input.Title) > maxFieldLength {
		verr.Add("title", fmt.Sprintf("The title may not be greater than %d characters.", maxFieldLength))
	}

	if input.Description == "" {
		verr.Add("description", "The description field is required.")
	}

	if input.Author == "" {
		verr.Add("author", "The author field is required.")
	} else if len(input.Author) > maxFieldLength {
		verr.Add("author", fmt.Sprintf("The author may not be greater than %d characters.", maxFieldLength))
	}

	if input.Genre == "" {
		verr.Add("genre", "The genre field is required.")
	} else if len(input.Genre) > maxFieldLength {
		verr.Add("genre", fmt.Sprintf("The genre may not be greater than %d characters.", maxFieldLength))
	}

	if input.Image != "" {
		if err := imageURL.ValidateImageURL(input.Image); err != nil {
			verr.Add("image", "The image must be a valid http or https URL.")
		}
	}

	return verr
}

// validateAdmin は管理者専用フィールドを含めて検証する。
func validateAdmin(input AdminInput, imageURL security.ImageURLValidator) *model.ValidationError {
	verr := validate(input.Input, imageURL)

	if input.Status == "" {
		verr.Add("status", "The status field is required.")
	} else if !model.ValidStatus(input.Status) {
		verr.Add("status", "The selected status is invalid.")
	}

	if input.Price < 0 {
		verr.Add("price", "The price must be at least 0.")
	}

	return verr
}

// List は公開向けのコミック一覧を新着順で返す。
func (s *Service) List(ctx context.Context) ([]*model.ComicWithOwner, error) {
	comics, err := s.comicRepo.ListWithOwner(ctx, s.config.PublicListPublishedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list comics: %w", err)
	}
	return comics, nil
}

// Get はコミックを所有者情報付きで1件取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.ComicWithOwner, error) {
	comic, err := s.comicRepo.FindByIDWithOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comic: %w", err)
	}
	if comic == nil {
		return nil, model.NewComicNotFoundError(id)
	}
	return comic, nil
}

// ListByUser はアクターが所有するコミック一覧を返す。
func (s *Service) ListByUser(ctx context.Context, actor *model.User) ([]*model.Comic, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}
	comics, err := s.comicRepo.ListByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user comics: %w", err)
	}
	return comics, nil
}

// Create は一般ユーザー向けのコミック作成。ステータスはdraft固定、
// featured・priceは既定値で作成され、所有者はアクター自身となる。
func (s *Service) Create(ctx context.Context, actor *model.User, input Input) (*model.Comic, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}
	if verr := validate(input, s.imageURL); verr.HasErrors() {
		return nil, verr
	}

	comic := s.buildComic(actor.ID, input)
	comic.Status = model.ComicStatusDraft
	comic.Featured = false
	comic.Price = 0

	if err := s.comicRepo.Create(ctx, comic); err != nil {
		return nil, fmt.Errorf("failed to create comic: %w", err)
	}

	s.recordComicCreated()
	slog.Info("comic created",
		slog.String("comic_id", comic.ID),
		slog.String("user_id", actor.ID),
	)
	return comic, nil
}

// Update はコミックを全フィールド再検証のうえ更新する。
// 所有者または管理者のみ実行でき、一般ユーザーはステータス・featured・価格を変更できない。
func (s *Service) Update(ctx context.Context, actor *model.User, id string, input Input) (*model.Comic, error) {
	existing, err := s.findForWrite(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if verr := validate(input, s.imageURL); verr.HasErrors() {
		return nil, verr
	}

	s.applyInput(existing, input)

	if err := s.comicRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update comic: %w", err)
	}

	slog.Info("comic updated",
		slog.String("comic_id", existing.ID),
		slog.String("user_id", actor.ID),
	)
	return existing, nil
}

// Delete はコミックを物理削除する。所有者または管理者のみ実行できる。
// 既に削除済みのIDに対してはNotFoundを返す。
func (s *Service) Delete(ctx context.Context, actor *model.User, id string) error {
	existing, err := s.findForWrite(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.comicRepo.DeleteByID(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete comic: %w", err)
	}

	slog.Info("comic deleted",
		slog.String("comic_id", existing.ID),
		slog.String("user_id", actor.ID),
	)
	return nil
}

// AdminList はステータスを問わない全件一覧を所有者情報付きで返す。
func (s *Service) AdminList(ctx context.Context, actor *model.User) ([]*model.ComicWithOwner, error) {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return nil, model.NewForbiddenError()
	}
	comics, err := s.comicRepo.ListWithOwner(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list comics: %w", err)
	}
	return comics, nil
}

// AdminCreate は管理者向けのコミック作成。ステータス・featured・価格を指定できる。
func (s *Service) AdminCreate(ctx context.Context, actor *model.User, input AdminInput) (*model.Comic, error) {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return nil, model.NewForbiddenError()
	}
	if verr := validateAdmin(input, s.imageURL); verr.HasErrors() {
		return nil, verr
	}

	comic := s.buildComic(actor.ID, input.Input)
	comic.Status = model.ComicStatus(input.Status)
	comic.Featured = input.Featured
	comic.Price = input.Price

	if err := s.comicRepo.Create(ctx, comic); err != nil {
		return nil, fmt.Errorf("failed to create comic: %w", err)
	}

	s.recordComicCreated()
	slog.Info("comic created by admin",
		slog.String("comic_id", comic.ID),
		slog.String("user_id", actor.ID),
	)
	return comic, nil
}

// AdminUpdate は管理者向けのコミック更新。全フィールドを指定して更新する。
func (s *Service) AdminUpdate(ctx context.Context, actor *model.User, id string, input AdminInput) (*model.Comic, error) {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return nil, model.NewForbiddenError()
	}
	if verr := validateAdmin(input, s.imageURL); verr.HasErrors() {
		return nil, verr
	}

	existing, err := s.comicRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comic: %w", err)
	}
	if existing == nil {
		return nil, model.NewComicNotFoundError(id)
	}

	s.applyInput(existing, input.Input)
	existing.Status = model.ComicStatus(input.Status)
	existing.Featured = input.Featured
	existing.Price = input.Price

	if err := s.comicRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update comic: %w", err)
	}

	slog.Info("comic updated by admin",
		slog.String("comic_id", existing.ID),
		slog.String("user_id", actor.ID),
	)
	return existing, nil
}

// AdminDelete は管理者向けのコミック削除。所有者であっても管理者でなければ拒否する。
func (s *Service) AdminDelete(ctx context.Context, actor *model.User, id string) error {
	if d := authz.RequireAdmin(actor); !d.Allowed() {
		return model.NewForbiddenError()
	}

	existing, err := s.comicRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find comic: %w", err)
	}
	if existing == nil {
		return model.NewComicNotFoundError(id)
	}

	if err := s.comicRepo.DeleteByID(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete comic: %w", err)
	}

	slog.Info("comic deleted by admin",
		slog.String("comic_id", existing.ID),
		slog.String("user_id", actor.ID),
	)
	return nil
}

// findForWrite は更新・削除の前段として存在確認と認可判定を行う。
// 認可拒否は副作用の前に確定する。
func (s *Service) findForWrite(ctx context.Context, actor *model.User, id string) (*model.Comic, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}

	existing, err := s.comicRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find comic: %w", err)
	}
	if existing == nil {
		return nil, model.NewComicNotFoundError(id)
	}

	if d := authz.RequireOwnerOrAdmin(actor, existing.UserID); !d.Allowed() {
		slog.Warn("comic write denied",
			slog.String("comic_id", id),
			slog.String("user_id", actor.ID),
		)
		return nil, model.NewForbiddenError()
	}
	return existing, nil
}

// buildComic は入力から新規コミックを組み立てる。説明文はHTMLサニタイズされる。
func (s *Service) buildComic(ownerID string, input Input) *model.Comic {
	now := time.Now()
	return &model.Comic{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: s.sanitizer.Sanitize(input.Description),
		Author:      input.Author,
		Genre:       input.Genre,
		Image:       input.Image,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// applyInput は共通フィールドのみを既存コミックへ反映する。
func (s *Service) applyInput(comic *model.Comic, input Input) {
	comic.Title = input.Title
	comic.Description = s.sanitizer.Sanitize(input.Description)
	comic.Author = input.Author
	comic.Genre = input.Genre
	comic.Image = input.Image
	comic.UpdatedAt = time.Now()
}

func (s *Service) recordComicCreated() {
	if s.metrics != nil {
		s.metrics.RecordComicCreated()
	}
}
