// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/comicshelf/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// comicResponse はコミック情報のAPIレスポンス。
type comicResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Image       string    `json:"image,omitempty"`
	Status      string    `json:"status"`
	Featured    bool      `json:"featured"`
	Price       float64   `json:"price"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// comicOwnerResponse はコミック所有者の最小限の情報。
type comicOwnerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// comicWithOwnerResponse は所有者情報を埋め込んだコミックレスポンス。
type comicWithOwnerResponse struct {
	comicResponse
	User comicOwnerResponse `json:"user"`
}

// userWithComicCountResponse は管理者向けユーザー一覧の1エントリ。
type userWithComicCountResponse struct {
	userResponse
	ComicCount int `json:"comics_count"`
}

// validationErrorResponse は422レスポンスのボディ。
type validationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toComicResponse(comic *model.Comic) comicResponse {
	return comicResponse{
		ID:          comic.ID,
		Title:       comic.Title,
		Description: comic.Description,
		Author:      comic.Author,
		Genre:       comic.Genre,
		Image:       comic.Image,
		Status:      string(comic.Status),
		Featured:    comic.Featured,
		Price:       comic.Price,
		UserID:      comic.UserID,
		CreatedAt:   comic.CreatedAt,
		UpdatedAt:   comic.UpdatedAt,
	}
}

func toComicWithOwnerResponse(comic *model.ComicWithOwner) comicWithOwnerResponse {
	return comicWithOwnerResponse{
		comicResponse: toComicResponse(&comic.Comic),
		User: comicOwnerResponse{
			ID:   comic.Owner.ID,
			Name: comic.Owner.Name,
		},
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeMessage は{"message": ...}形式のレスポンスを書き込む。
func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// writeInvalidRequest はJSONボディの解析失敗などに対する400レスポンスを書き込む。
func writeInvalidRequest(w http.ResponseWriter) {
	writeMessage(w, http.StatusBadRequest, "Invalid request body.")
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// バリデーションエラーはフィールド別メッセージ付きの422、既知のAPIErrorは
// コードに応じたステータス、それ以外は500として処理する。
// 500レスポンスには元のエラー文字列を含める（従来挙動の踏襲）。
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
			Message: verr.FirstMessage(),
			Errors:  verr.Fields,
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == model.ErrCodeInvalidCredentials {
			// 資格情報エラーはemailフィールドのバリデーションエラーとして報告する
			writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
				Message: apiErr.Message,
				Errors:  map[string][]string{"email": {apiErr.Message}},
			})
			return
		}
		writeMessage(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": "Server Error",
		"error":   err.Error(),
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidCredentials:
		return http.StatusUnprocessableEntity
	case model.ErrCodeUnauthenticated, model.ErrCodeNoSession:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeComicNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
