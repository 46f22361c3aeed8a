package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/comicshelf/internal/comic"
	"github.com/hitoshi/comicshelf/internal/middleware"
	"github.com/hitoshi/comicshelf/internal/model"
)

// --- モック定義 ---

type mockComicService struct {
	listFunc       func(ctx context.Context) ([]*model.ComicWithOwner, error)
	getFunc        func(ctx context.Context, id string) (*model.ComicWithOwner, error)
	listByUserFunc func(ctx context.Context, actor *model.User) ([]*model.Comic, error)
	createFunc     func(ctx context.Context, actor *model.User, input comic.Input) (*model.Comic, error)
	updateFunc     func(ctx context.Context, actor *model.User, id string, input comic.Input) (*model.Comic, error)
	deleteFunc     func(ctx context.Context, actor *model.User, id string) error
}

func (m *mockComicService) List(ctx context.Context) ([]*model.ComicWithOwner, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockComicService) Get(ctx context.Context, id string) (*model.ComicWithOwner, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, model.NewComicNotFoundError(id)
}

func (m *mockComicService) ListByUser(ctx context.Context, actor *model.User) ([]*model.Comic, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, actor)
	}
	return nil, nil
}

func (m *mockComicService) Create(ctx context.Context, actor *model.User, input comic.Input) (*model.Comic, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockComicService) Update(ctx context.Context, actor *model.User, id string, input comic.Input) (*model.Comic, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, actor, id, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockComicService) Delete(ctx context.Context, actor *model.User, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, actor, id)
	}
	return nil
}

func sampleComicWithOwner() *model.ComicWithOwner {
	return &model.ComicWithOwner{
		Comic: model.Comic{
			ID:          "comic-1",
			Title:       "One Piece",
			Description: "A pirate adventure.",
			Author:      "Eiichiro Oda",
			Genre:       "Adventure",
			Status:      model.ComicStatusPublished,
			Price:       9.99,
			UserID:      "user-1",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		},
		Owner: model.ComicOwner{ID: "user-1", Name: "Ann"},
	}
}

// chiParamRequest はURLパラメータを持つリクエストを組み立てる。
func chiParamRequest(method, target, paramKey, paramValue string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(paramKey, paramValue)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestComicList_ReturnsComicsWithOwner は一覧が所有者情報付きで返ることを検証する。
func TestComicList_ReturnsComicsWithOwner(t *testing.T) {
	service := &mockComicService{
		listFunc: func(ctx context.Context) ([]*model.ComicWithOwner, error) {
			return []*model.ComicWithOwner{sampleComicWithOwner()}, nil
		},
	}
	h := NewComicHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/comics", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body []map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 comic, got %d", len(body))
	}
	owner, ok := body[0]["user"].(map[string]any)
	if !ok || owner["name"] != "Ann" {
		t.Errorf("unexpected owner payload: %v", body[0]["user"])
	}
}

// TestComicList_EmptyReturnsArray は0件でもJSON配列を返すことを検証する。
func TestComicList_EmptyReturnsArray(t *testing.T) {
	h := NewComicHandler(&mockComicService{})

	req := httptest.NewRequest(http.MethodGet, "/comics", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// TestComicGet_NotFound は存在しないIDで404を返すことを検証する。
func TestComicGet_NotFound(t *testing.T) {
	h := NewComicHandler(&mockComicService{})

	req := chiParamRequest(http.MethodGet, "/comics/missing", "id", "missing", "")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// TestComicCreate_Success は作成成功で201を返すことを検証する。
func TestComicCreate_Success(t *testing.T) {
	service := &mockComicService{
		createFunc: func(ctx context.Context, actor *model.User, input comic.Input) (*model.Comic, error) {
			return &model.Comic{
				ID:     "comic-new",
				Title:  input.Title,
				Status: model.ComicStatusDraft,
				UserID: actor.ID,
			}, nil
		},
	}
	h := NewComicHandler(service)

	body := `{"title":"New Comic","description":"desc","author":"me","genre":"Action"}`
	req := httptest.NewRequest(http.MethodPost, "/comics", strings.NewReader(body))
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "t"})
	w := httptest.NewRecorder()

	h.Create(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	resp := decodeBody(t, w)
	if resp["id"] != "comic-new" {
		t.Errorf("id = %v, want comic-new", resp["id"])
	}
	if resp["status"] != "draft" {
		t.Errorf("status = %v, want draft", resp["status"])
	}
}

// TestComicUpdate_Forbidden は非所有者の更新で403を返すことを検証する。
func TestComicUpdate_Forbidden(t *testing.T) {
	service := &mockComicService{
		updateFunc: func(ctx context.Context, actor *model.User, id string, input comic.Input) (*model.Comic, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewComicHandler(service)

	body := `{"title":"t","description":"d","author":"a","genre":"g"}`
	req := chiParamRequest(http.MethodPut, "/comics/comic-1", "id", "comic-1", body)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "stranger"}, &model.Token{ID: "t"})
	w := httptest.NewRecorder()

	h.Update(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "Unauthorized" {
		t.Errorf("message = %v, want Unauthorized.", resp["message"])
	}
}

// TestComicDelete_Success は削除成功時のメッセージを検証する。
func TestComicDelete_Success(t *testing.T) {
	var deletedID string
	service := &mockComicService{
		deleteFunc: func(ctx context.Context, actor *model.User, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewComicHandler(service)

	req := chiParamRequest(http.MethodDelete, "/comics/comic-1", "id", "comic-1", "")
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "t"})
	w := httptest.NewRecorder()

	h.Delete(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if deletedID != "comic-1" {
		t.Errorf("deleted id = %q, want comic-1", deletedID)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "Comic deleted successfully" {
		t.Errorf("message = %v, want Comic deleted successfully", resp["message"])
	}
}

// TestComicCreate_InternalErrorExposesError は想定外エラーの500レスポンス形式を検証する。
func TestComicCreate_InternalErrorExposesError(t *testing.T) {
	service := &mockComicService{
		createFunc: func(ctx context.Context, actor *model.User, input comic.Input) (*model.Comic, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	h := NewComicHandler(service)

	body := `{"title":"t","description":"d","author":"a","genre":"g"}`
	req := httptest.NewRequest(http.MethodPost, "/comics", strings.NewReader(body))
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "t"})
	w := httptest.NewRecorder()

	h.Create(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
	resp := decodeBody(t, w)
	if resp["error"] != "pq: connection refused" {
		t.Errorf("error = %v, want raw error string", resp["error"])
	}
}

// TestListMine_ReturnsOwnComics は自分のコミックのみ返ることを検証する。
func TestListMine_ReturnsOwnComics(t *testing.T) {
	service := &mockComicService{
		listByUserFunc: func(ctx context.Context, actor *model.User) ([]*model.Comic, error) {
			return []*model.Comic{{ID: "comic-1", UserID: actor.ID}}, nil
		},
	}
	h := NewComicHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/user/comics", nil)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "t"})
	w := httptest.NewRecorder()

	h.ListMine(w, req.WithContext(ctx))

	var body []map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 || body[0]["user_id"] != "user-1" {
		t.Errorf("unexpected body: %v", body)
	}
}

// TestCategories_ReturnsGenreList はジャンル一覧が返ることを検証する。
func TestCategories_ReturnsGenreList(t *testing.T) {
	h := NewComicHandler(&mockComicService{})

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	w := httptest.NewRecorder()

	h.Categories(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body map[string][]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body["categories"]) != len(model.Genres) {
		t.Errorf("categories count = %d, want %d", len(body["categories"]), len(model.Genres))
	}
}

// TestPing は疎通確認のレスポンスを検証する。
func TestPing(t *testing.T) {
	h := NewComicHandler(&mockComicService{})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	h.Ping(w, req)

	resp := decodeBody(t, w)
	if resp["message"] != "API is working!" {
		t.Errorf("message = %v, want API is working!", resp["message"])
	}
}
