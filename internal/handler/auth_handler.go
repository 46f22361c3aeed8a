package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/comicshelf/internal/auth"
	"github.com/hitoshi/comicshelf/internal/middleware"
	"github.com/hitoshi/comicshelf/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error)
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	Logout(ctx context.Context, user *model.User, token *model.Token) (degraded bool, err error)
}

// AuthHandler はトークン認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は登録・ログイン成功時のレスポンス。
type authResponse struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message:     "User registered successfully",
		AccessToken: result.Token,
		TokenType:   "Bearer",
		User:        toUserResponse(result.User),
	})
}

// Login はログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message:     "Successfully logged in",
		AccessToken: result.Token,
		TokenType:   "Bearer",
		User:        toUserResponse(result.User),
	})
}

// Logout は現在のトークンを失効させる。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	token, _ := middleware.TokenFromContext(r.Context())

	degraded, err := h.service.Logout(r.Context(), user, token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	message := "Successfully logged out"
	if degraded {
		message = "Logout completed with errors"
	}
	writeMessage(w, http.StatusOK, message)
}

// Me は現在の認証済みユーザーを返す。
// GET /user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthenticatedError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{
		"user": toUserResponse(user),
	})
}
