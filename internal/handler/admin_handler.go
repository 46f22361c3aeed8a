package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/comicshelf/internal/comic"
	"github.com/hitoshi/comicshelf/internal/middleware"
	"github.com/hitoshi/comicshelf/internal/model"
)

// AdminComicServiceInterface は管理者向けコミック操作のサービスインターフェース。
type AdminComicServiceInterface interface {
	AdminList(ctx context.Context, actor *model.User) ([]*model.ComicWithOwner, error)
	AdminCreate(ctx context.Context, actor *model.User, input comic.AdminInput) (*model.Comic, error)
	AdminUpdate(ctx context.Context, actor *model.User, id string, input comic.AdminInput) (*model.Comic, error)
	AdminDelete(ctx context.Context, actor *model.User, id string) error
}

// AdminServiceInterface は管理パネルの統計・ユーザー一覧のサービスインターフェース。
type AdminServiceInterface interface {
	Stats(ctx context.Context, actor *model.User) (*model.CatalogStats, error)
	ListUsers(ctx context.Context, actor *model.User) ([]*model.UserWithComicCount, error)
}

// AdminHandler は管理パネルのHTTPハンドラー。
type AdminHandler struct {
	comics AdminComicServiceInterface
	admin  AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(comics AdminComicServiceInterface, admin AdminServiceInterface) *AdminHandler {
	return &AdminHandler{
		comics: comics,
		admin:  admin,
	}
}

// adminComicRequest は管理者向けコミック作成・更新リクエストのボディ。
type adminComicRequest struct {
	comicRequest
	Status   string  `json:"status"`
	Featured bool    `json:"featured"`
	Price    float64 `json:"price"`
}

func (req adminComicRequest) toAdminInput() comic.AdminInput {
	return comic.AdminInput{
		Input:    req.comicRequest.toInput(),
		Status:   req.Status,
		Featured: req.Featured,
		Price:    req.Price,
	}
}

// statsResponse は管理者向け統計のレスポンス。
type statsResponse struct {
	TotalComics     int `json:"totalComics"`
	TotalUsers      int `json:"totalUsers"`
	PublishedComics int `json:"publishedComics"`
}

// ListComics はステータスを問わない全コミック一覧を返す。
// GET /admin/comics
func (h *AdminHandler) ListComics(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	comics, err := h.comics.AdminList(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]comicWithOwnerResponse, len(comics))
	for i, c := range comics {
		results[i] = toComicWithOwnerResponse(c)
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateComic は管理者権限でコミックを作成する。
// POST /admin/comics
func (h *AdminHandler) CreateComic(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req adminComicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.comics.AdminCreate(r.Context(), user, req.toAdminInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toComicResponse(created))
}

// UpdateComic は管理者権限でコミックを更新する。
// PUT /admin/comics/{id}
func (h *AdminHandler) UpdateComic(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req adminComicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.comics.AdminUpdate(r.Context(), user, id, req.toAdminInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComicResponse(updated))
}

// DeleteComic は管理者権限でコミックを削除する。
// DELETE /admin/comics/{id}
func (h *AdminHandler) DeleteComic(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.comics.AdminDelete(r.Context(), user, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Comic deleted successfully")
}

// Stats はカタログ全体の統計を返す。
// GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	stats, err := h.admin.Stats(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalComics:     stats.TotalComics,
		TotalUsers:      stats.TotalUsers,
		PublishedComics: stats.PublishedComics,
	})
}

// ListUsers は全ユーザーを所有コミック数付きで返す。
// GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	users, err := h.admin.ListUsers(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userWithComicCountResponse, len(users))
	for i, u := range users {
		results[i] = userWithComicCountResponse{
			userResponse: toUserResponse(&u.User),
			ComicCount:   u.ComicCount,
		}
	}
	writeJSON(w, http.StatusOK, results)
}
