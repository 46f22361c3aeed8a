package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/comicshelf/internal/metrics"
	"github.com/hitoshi/comicshelf/internal/middleware"
	"github.com/hitoshi/comicshelf/internal/model"
)

// --- モック定義 ---

type mockRouterUserResolver struct {
	user  *model.User
	token *model.Token
}

func (m *mockRouterUserResolver) CurrentUser(ctx context.Context, plainToken string) (*model.User, *model.Token, error) {
	if plainToken == "valid-token" && m.user != nil {
		return m.user, m.token, nil
	}
	return nil, nil, model.NewUnauthenticatedError()
}

func newTestRouter(resolver middleware.UserResolver) http.Handler {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	return NewRouter(&RouterDeps{
		UserResolver:      resolver,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 10)),
		Logger:            slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		MetricsCollector:  collector,
		MetricsGatherer:   reg,
		AuthService:       &mockAuthService{},
		ComicService:      &mockComicService{},
		AdminComicService: &mockAdminComicService{},
		AdminService:      &mockAdminService{},
	})
}

// TestRouter_UnmatchedRouteReturns404 は未定義ルートの統一404レスポンスを検証する。
func TestRouter_UnmatchedRouteReturns404(t *testing.T) {
	router := newTestRouter(&mockRouterUserResolver{})

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "Route not found." {
		t.Errorf("message = %v, want Route not found.", resp["message"])
	}
}

// TestRouter_PublicRoutesAccessibleWithoutToken は公開ルートが未認証で到達できることを検証する。
func TestRouter_PublicRoutesAccessibleWithoutToken(t *testing.T) {
	router := newTestRouter(&mockRouterUserResolver{})

	publicRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/comics"},
		{http.MethodGet, "/categories"},
		{http.MethodGet, "/test"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
	}

	for _, route := range publicRoutes {
		t.Run(route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
			}
		})
	}
}

// TestRouter_ProtectedRoutesRequireToken は保護ルートが未認証で401を返すことを検証する。
func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(&mockRouterUserResolver{})

	protectedRoutes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/user"},
		{http.MethodGet, "/user/comics"},
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/comics"},
		{http.MethodPut, "/comics/comic-1"},
		{http.MethodDelete, "/comics/comic-1"},
		{http.MethodGet, "/admin/stats"},
		{http.MethodGet, "/admin/users"},
		{http.MethodGet, "/admin/comics/"},
		{http.MethodPost, "/admin/comics/"},
	}

	for _, route := range protectedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
			}
		})
	}
}

// TestRouter_BearerTokenGrantsAccess は有効なトークンで保護ルートに到達できることを検証する。
func TestRouter_BearerTokenGrantsAccess(t *testing.T) {
	resolver := &mockRouterUserResolver{
		user:  &model.User{ID: "user-1", Name: "Ann", Email: "ann@x.com"},
		token: &model.Token{ID: "token-1", UserID: "user-1"},
	}
	router := newTestRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	resp := decodeBody(t, w)
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "user-1" {
		t.Errorf("unexpected user payload: %v", resp["user"])
	}
}

// TestRouter_SetsSecurityAndCORSHeaders は全レスポンスに共通ヘッダーが付与されることを検証する。
func TestRouter_SetsSecurityAndCORSHeaders(t *testing.T) {
	router := newTestRouter(&mockRouterUserResolver{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	headers := w.Result().Header
	if got := headers.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

// TestRouter_MetricsEndpointExposesFamilies は/metricsにアプリのメトリクスが出ることを検証する。
func TestRouter_MetricsEndpointExposesFamilies(t *testing.T) {
	router := newTestRouter(&mockRouterUserResolver{})

	// 1リクエスト処理してからメトリクスを確認
	warm := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "comicshelf_http_status_total") {
		t.Error("expected comicshelf_http_status_total in metrics output")
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// TestRouter_Health_DBDown はDB疎通不能時に/healthが503を返すことを検証する。
func TestRouter_Health_DBDown(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(&RouterDeps{
		UserResolver:      &mockRouterUserResolver{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 10)),
		MetricsCollector:  metrics.NewCollector(reg),
		MetricsGatherer:   reg,
		DB: pingerFunc(func(ctx context.Context) error {
			return errors.New("connection refused")
		}),
		AuthService:       &mockAuthService{},
		ComicService:      &mockComicService{},
		AdminComicService: &mockAdminComicService{},
		AdminService:      &mockAdminService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
	if !strings.Contains(w.Body.String(), "unavailable") {
		t.Errorf("body = %s, want status unavailable", w.Body.String())
	}
}
