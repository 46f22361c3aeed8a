// Package auth はパスワード認証、トークンライフサイクル管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/comicshelf/internal/model"
	"github.com/hitoshi/comicshelf/internal/repository"
)

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // bcryptハッシュのコストパラメータ
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	metrics   MetricsRecorder
	config    ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		metrics:   metrics,
		config:    config,
	}
}

// AuthResult は認証成功時の結果。Tokenは平文で、この1回しか取得できない。
type AuthResult struct {
	Token string
	User  *model.User
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// フィールド長とパスワードの制約
const (
	maxNameLength     = 255
	maxEmailLength    = 255
	minPasswordLength = 8
	// bcryptは72バイトを超えるパスワードを受け付けないため、バリデーション段階で弾く。
	maxPasswordLength = 72
)

// dummyPasswordHash はユーザーが存在しない場合の比較対象。
// メールアドレスの存在有無が応答時間から推測できないよう、
// 実在しないユーザーに対しても必ず1回bcrypt比較を行う。
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Register は新規ユーザーを登録し、初回トークンを発行する。
// ユーザーとトークンは同一トランザクションで作成される。
// 制約違反時は*model.ValidationErrorを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	verr := model.NewValidationError()

	if input.Name == "" {
		verr.Add("name", "The name field is required.")
	} else if len(input.Name) > maxNameLength {
		verr.Add("name", fmt.Sprintf("The name may not be greater than %d characters.", maxNameLength))
	}

	if input.Email == "" {
		verr.Add("email", "The email field is required.")
	} else if len(input.Email) > maxEmailLength {
		verr.Add("email", fmt.Sprintf("The email may not be greater than %d characters.", maxEmailLength))
	} else if !validEmail(input.Email) {
		verr.Add("email", "The email must be a valid email address.")
	}

	if input.Password == "" {
		verr.Add("password", "The password field is required.")
	} else if len(input.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
	} else if len(input.Password) > maxPasswordLength {
		verr.Add("password", fmt.Sprintf("The password may not be greater than %d characters.", maxPasswordLength))
	} else if input.Password != input.PasswordConfirmation {
		verr.Add("password", "The password confirmation does not match.")
	}

	if verr.HasErrors() {
		return nil, verr
	}

	// メールアドレスの一意性確認。レースはDB側のユニークインデックスが最終防衛線。
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		verr.Add("email", "The email has already been taken.")
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	plain, token, err := s.newToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.userRepo.CreateWithToken(ctx, user, token); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{Token: plain, User: user}, nil
}

// Login はメールアドレスとパスワードを検証し、新しいトークンを発行する。
// 成功時は既存トークンを全て失効させてから1本だけ発行する（単一アクティブセッション）。
// 失効と発行は同一トランザクションで行われる。
// 認証失敗時はメールアドレスの存在有無を漏らさない汎用メッセージを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	verr := model.NewValidationError()
	if email == "" {
		verr.Add("email", "The email field is required.")
	} else if !validEmail(email) {
		verr.Add("email", "The email must be a valid email address.")
	}
	if password == "" {
		verr.Add("password", "The password field is required.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	storedHash := dummyPasswordHash
	if user != nil {
		storedHash = []byte(user.PasswordHash)
	}

	if err := bcrypt.CompareHashAndPassword(storedHash, []byte(password)); err != nil || user == nil {
		s.recordLoginFailure()
		slog.Warn("login failed",
			slog.Bool("user_exists", user != nil),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	plain, token, err := s.newToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.tokenRepo.ReplaceForUser(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("failed to replace tokens: %w", err)
	}

	s.recordLoginSuccess()
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &AuthResult{Token: plain, User: user}, nil
}

// Logout は現在のリクエストで使用されたトークンを失効させる。
// トークン単体の削除に失敗した場合は、安全策としてユーザーの全トークン削除を試みた上で
// 完了として報告する（degraded=true）。セッション失効の意図が実行された以上、
// 呼び出し元にハードエラーを返さない。アクセス判定側は常にフェイルクローズ。
func (s *Service) Logout(ctx context.Context, user *model.User, token *model.Token) (degraded bool, err error) {
	if user == nil || token == nil {
		return false, model.NewNoSessionError()
	}

	if err := s.tokenRepo.DeleteByID(ctx, token.ID); err != nil {
		slog.Error("failed to delete token, revoking all user tokens",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)

		if fallbackErr := s.tokenRepo.DeleteByUserID(ctx, user.ID); fallbackErr != nil {
			slog.Error("failed to revoke user tokens during logout cleanup",
				slog.String("user_id", user.ID),
				slog.String("error", fallbackErr.Error()),
			)
		}
		return true, nil
	}

	slog.Info("user logged out",
		slog.String("user_id", user.ID),
	)
	return false, nil
}

// CurrentUser はBearerトークンの平文から現在のユーザーを解決する。
// トークンが未知または失効済みの場合はUnauthenticatedエラーを返す。
func (s *Service) CurrentUser(ctx context.Context, plainToken string) (*model.User, *model.Token, error) {
	if plainToken == "" {
		return nil, nil, model.NewUnauthenticatedError()
	}

	token, err := s.tokenRepo.FindByHash(ctx, hashToken(plainToken))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find token: %w", err)
	}
	if token == nil {
		return nil, nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewUnauthenticatedError()
	}

	return user, token, nil
}

// newToken は暗号的に安全なトークンを生成し、永続化用のモデルと平文を返す。
func (s *Service) newToken(userID string) (string, *model.Token, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	plain := hex.EncodeToString(b)

	token := &model.Token{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: hashToken(plain),
		CreatedAt: time.Now(),
	}
	return plain, token, nil
}

// hashToken はトークン平文のSHA-256ダイジェストを16進文字列で返す。
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// validEmail はメールアドレスの形式を検証する。
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *Service) recordLoginSuccess() {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}
