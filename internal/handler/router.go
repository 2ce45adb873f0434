package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/countboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CredentialSources []middleware.CredentialSource
	CORSAllowedOrigin string
	CookieSecure      bool
	CookieDomain      string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver

	// 認証
	AuthService AuthServiceInterface
	AuthMetrics AuthMetricsRecorder
	AuthConfig  AuthHandlerConfig

	// ページロード
	Provisioner   UserRecordProvisioner
	CounterReader CounterReader

	// カウンター更新
	CounterWriter  CounterWriter
	CounterMetrics CounterMetricsRecorder

	// リアルタイム配信
	RealtimeHandler http.Handler

	// メトリクス公開
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → SessionResolver → RateLimit
//
// セッション解決は全ルートに適用されるが、認証を必須とするのは
// RequireSessionを重ねたルートのみ。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.StatusObserver != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusObserver))
	}
	r.Use(middleware.NewSessionResolverMiddleware(deps.SessionFinder, deps.CredentialSources...))

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.CookieSecure,
		CookieDomain: deps.CookieDomain,
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.Provisioner, deps.CounterReader)
	counterHandler := NewCounterHandler(deps.CounterWriter, deps.CounterMetrics)

	// --- 運用系ルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得
	r.Handle("/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	// --- 認証ルート ---
	// 未認証クライアントが対象のため、IP単位の認証レート制限を適用する。
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))

		r.Route("/auth", func(r chi.Router) {
			// メール/パスワード認証
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.SignIn)

			// OAuthフロー
			r.Get("/google/login", authHandler.Login)
			r.Get("/google/callback", authHandler.Callback)

			// セッション管理
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	// --- ページロード/カウンターAPI ---
	// セッションは解決済みだが必須ではない（未ログインは正常系）。
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))

		r.Get("/api/layout", pageHandler.Layout)
		r.Get("/api/pages/home", pageHandler.Home)
		r.Get("/api/pages/user/{id}", pageHandler.UserPage)

		// グローバルカウンターは未ログインでも更新可能
		r.Post("/api/counter/global/increment", counterHandler.IncrementGlobal)

		// 自分のカウンター更新はログイン必須
		r.With(middleware.NewRequireSessionMiddleware()).
			Post("/api/counter/increment", counterHandler.IncrementOwn)
	})

	// --- リアルタイム配信 ---
	if deps.RealtimeHandler != nil {
		r.Handle("/realtime", deps.RealtimeHandler)
	}

	return r
}
