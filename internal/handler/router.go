package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/comicshelf/internal/metrics"
	"github.com/hitoshi/comicshelf/internal/middleware"
)

// Pinger はデータベース接続の死活確認インターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック用。nilの場合はDB確認をスキップする。
	DB Pinger

	// ロギングとメトリクス
	Logger           *slog.Logger
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer

	// サービス
	AuthService       AuthServiceInterface
	ComicService      ComicServiceInterface
	AdminComicService AdminComicServiceInterface
	AdminService      AdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (保護ルートのみ BearerToken → RateLimit)
//
// 登録・ログインはIP単位の専用レート制限を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.MetricsCollector))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	comicHandler := NewComicHandler(deps.ComicService)
	adminHandler := NewAdminHandler(deps.AdminComicService, deps.AdminService)

	// 存在しないルートへの統一レスポンス
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found.")
	})

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsGatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.MetricsGatherer).ServeHTTP)
	}

	r.Get("/test", comicHandler.Ping)
	r.Get("/categories", comicHandler.Categories)

	// 登録・ログインはIP単位のレート制限を通す
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthMiddleware())
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// コミックの参照は未認証でも可能
	r.Get("/comics", comicHandler.List)
	r.Get("/comics/{id}", comicHandler.Get)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerToken → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerTokenMiddleware(deps.UserResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// セッション管理
		r.Post("/logout", authHandler.Logout)
		r.Get("/user", authHandler.Me)
		r.Get("/user/comics", comicHandler.ListMine)

		// コミック管理
		r.Post("/comics", comicHandler.Create)
		r.Put("/comics/{id}", comicHandler.Update)
		r.Delete("/comics/{id}", comicHandler.Delete)

		// 管理パネル
		r.Route("/admin", func(r chi.Router) {
			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.ListUsers)

			r.Route("/comics", func(r chi.Router) {
				r.Get("/", adminHandler.ListComics)
				r.Post("/", adminHandler.CreateComic)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", adminHandler.UpdateComic)
					r.Delete("/", adminHandler.DeleteComic)
				})
			})
		})
	})

	return r
}
