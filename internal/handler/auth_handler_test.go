package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/comicshelf/internal/auth"
	"github.com/hitoshi/comicshelf/internal/middleware"
	"github.com/hitoshi/comicshelf/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFunc func(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error)
	loginFunc    func(ctx context.Context, email, password string) (*auth.AuthResult, error)
	logoutFunc   func(ctx context.Context, user *model.User, token *model.Token) (bool, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, user *model.User, token *model.Token) (bool, error) {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, user, token)
	}
	return false, nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

// TestRegisterHandler_Success は登録成功時に201とトークンを返すことを検証する。
func TestRegisterHandler_Success(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
			return &auth.AuthResult{
				Token: "issued-token",
				User:  &model.User{ID: "user-1", Name: input.Name, Email: input.Email},
			}, nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"name":"Ann","email":"ann@x.com","password":"pw123456","password_confirmation":"pw123456"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}

	resp := decodeBody(t, w)
	if resp["access_token"] != "issued-token" {
		t.Errorf("access_token = %v, want issued-token", resp["access_token"])
	}
	if resp["token_type"] != "Bearer" {
		t.Errorf("token_type = %v, want Bearer", resp["token_type"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "ann@x.com" {
		t.Errorf("unexpected user payload: %v", resp["user"])
	}
}

// TestRegisterHandler_ValidationError はバリデーションエラーで422を返すことを検証する。
func TestRegisterHandler_ValidationError(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
			verr := model.NewValidationError()
			verr.Add("email", "The email has already been taken.")
			return nil, verr
		},
	}
	h := NewAuthHandler(service)

	body := `{"name":"Ann","email":"ann@x.com","password":"pw123456","password_confirmation":"pw123456"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnprocessableEntity)
	}

	resp := decodeBody(t, w)
	fieldErrors, ok := resp["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors map, got %v", resp["errors"])
	}
	if _, ok := fieldErrors["email"]; !ok {
		t.Error("expected an error on the email field")
	}
}

// TestRegisterHandler_InvalidJSON は不正なJSONで400を返すことを検証する。
func TestRegisterHandler_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// TestLoginHandler_Success はログイン成功時に200とトークンを返すことを検証する。
func TestLoginHandler_Success(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			return &auth.AuthResult{
				Token: "fresh-token",
				User:  &model.User{ID: "user-1", Email: email},
			}, nil
		},
	}
	h := NewAuthHandler(service)

	body := `{"email":"ann@x.com","password":"pw123456"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	resp := decodeBody(t, w)
	if resp["access_token"] != "fresh-token" {
		t.Errorf("access_token = %v, want fresh-token", resp["access_token"])
	}
	if resp["message"] != "Successfully logged in" {
		t.Errorf("message = %v, want Successfully logged in", resp["message"])
	}
}

// TestLoginHandler_InvalidCredentials は認証失敗で422と汎用メッセージを返すことを検証する。
func TestLoginHandler_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(service)

	body := `{"email":"ann@x.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnprocessableEntity)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "The provided credentials are incorrect." {
		t.Errorf("message = %v, want generic credentials message", resp["message"])
	}
	if _, ok := resp["errors"].(map[string]any); !ok {
		t.Errorf("expected errors map, got %v", resp["errors"])
	}
}

// TestLogoutHandler_Success はログアウト成功時のメッセージを検証する。
func TestLogoutHandler_Success(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, user *model.User, token *model.Token) (bool, error) {
			return false, nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "token-1"})
	w := httptest.NewRecorder()

	h.Logout(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "Successfully logged out" {
		t.Errorf("message = %v, want Successfully logged out", resp["message"])
	}
}

// TestLogoutHandler_Degraded はクリーンアップ失敗時も200で完了を報告することを検証する。
func TestLogoutHandler_Degraded(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, user *model.User, token *model.Token) (bool, error) {
			return true, nil
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1"}, &model.Token{ID: "token-1"})
	w := httptest.NewRecorder()

	h.Logout(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	resp := decodeBody(t, w)
	if resp["message"] != "Logout completed with errors" {
		t.Errorf("message = %v, want Logout completed with errors", resp["message"])
	}
}

// TestLogoutHandler_NoSession はセッションが無い場合に401を返すことを検証する。
func TestLogoutHandler_NoSession(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, user *model.User, token *model.Token) (bool, error) {
			return false, model.NewNoSessionError()
		},
	}
	h := NewAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestMeHandler_ReturnsUser は認証済みユーザー情報を返すことを検証する。
func TestMeHandler_ReturnsUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	ctx := middleware.ContextWithUser(req.Context(),
		&model.User{ID: "user-1", Name: "Ann", Email: "ann@x.com", PasswordHash: "secret-hash"},
		&model.Token{ID: "token-1"},
	)
	w := httptest.NewRecorder()

	h.Me(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	raw := w.Body.String()
	if strings.Contains(raw, "secret-hash") {
		t.Error("response must not contain the password hash")
	}

	resp := decodeBody(t, w)
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "user-1" {
		t.Errorf("unexpected user payload: %v", resp["user"])
	}
}
