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

// ComicServiceInterface はコミックハンドラーが必要とするサービスインターフェース。
type ComicServiceInterface interface {
	List(ctx context.Context) ([]*model.ComicWithOwner, error)
	Get(ctx context.Context, id string) (*model.ComicWithOwner, error)
	ListByUser(ctx context.Context, actor *model.User) ([]*model.Comic, error)
	Create(ctx context.Context, actor *model.User, input comic.Input) (*model.Comic, error)
	Update(ctx context.Context, actor *model.User, id string, input comic.Input) (*model.Comic, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

// ComicHandler はコミックCRUDのHTTPハンドラー。
type ComicHandler struct {
	service ComicServiceInterface
}

// NewComicHandler はComicHandlerを生成する。
func NewComicHandler(service ComicServiceInterface) *ComicHandler {
	return &ComicHandler{service: service}
}

// comicRequest はコミック作成・更新リクエストのボディ。
type comicRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Image       string `json:"image"`
}

func (req comicRequest) toInput() comic.Input {
	return comic.Input{
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Genre:       req.Genre,
		Image:       req.Image,
	}
}

// List は公開向けのコミック一覧を返す。
// GET /comics
func (h *ComicHandler) List(w http.ResponseWriter, r *http.Request) {
	comics, err := h.service.List(r.Context())
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

// Get はコミック詳細を返す。
// GET /comics/{id}
func (h *ComicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComicWithOwnerResponse(c))
}

// ListMine は認証済みユーザーが所有するコミック一覧を返す。
// GET /user/comics
func (h *ComicHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	comics, err := h.service.ListByUser(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]comicResponse, len(comics))
	for i, c := range comics {
		results[i] = toComicResponse(c)
	}
	writeJSON(w, http.StatusOK, results)
}

// Create はコミックを作成する。
// POST /comics
func (h *ComicHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req comicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	created, err := h.service.Create(r.Context(), user, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toComicResponse(created))
}

// Update はコミックを更新する。
// PUT /comics/{id}
func (h *ComicHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req comicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	updated, err := h.service.Update(r.Context(), user, id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComicResponse(updated))
}

// Delete はコミックを削除する。
// DELETE /comics/{id}
func (h *ComicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Comic deleted successfully")
}

// Categories は選択可能なジャンル一覧を返す。
// GET /categories
func (h *ComicHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"categories": model.Genres,
	})
}

// Ping は疎通確認用のエンドポイント。
// GET /test
func (h *ComicHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "API is working!")
}
