// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/countboard/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストに解決済みセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// CredentialSource はリクエストからセッション資格情報を取り出す手段。
// Cookie運用とBearerトークン運用を同一の解決パスで扱うための抽象。
type CredentialSource interface {
	// Extract はリクエストからセッションIDを取り出す。
	// 資格情報が存在しない場合は空文字列を返す（エラーではない）。
	Extract(r *http.Request) string
}

// CookieCredentialSource はHTTP Only CookieからセッションIDを読み取る。
type CookieCredentialSource struct{}

// Extract はセッションCookieの値を返す。Cookieがなければ空文字列。
func (CookieCredentialSource) Extract(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// BearerCredentialSource はAuthorizationヘッダーのBearerトークンから
// セッションIDを読み取る。APIクライアント向け。
type BearerCredentialSource struct{}

// Extract はBearerトークンの値を返す。ヘッダーがなければ空文字列。
func (BearerCredentialSource) Extract(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// NewSessionResolverMiddleware はリクエストの資格情報からセッションを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 資格情報の欠如・無効・検索失敗はすべて「未認証」として扱い、
// リクエスト自体は常に通過させる。認証必須の判断はRequireSession側で行う。
// sourcesは先頭から順に試行し、最初に資格情報を返したものを採用する。
func NewSessionResolverMiddleware(sessionFinder SessionFinder, sources ...CredentialSource) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. 資格情報の取り出し
			var sessionID string
			for _, source := range sources {
				if id := source.Extract(r); id != "" {
					sessionID = id
					break
				}
			}
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), sessionID)
			if err != nil {
				// 検索失敗は未認証に縮退させる
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			// 3. 解決済みセッションをコンテキストに注入
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireSessionMiddleware は認証済みセッションを必須とするミドルウェアを返す。
// SessionResolverの後段に配置し、セッションが解決されていないリクエストには
// 401 Unauthorizedを返す。
func NewRequireSessionMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "UNAUTHORIZED",
					Message:  "ログインが必要です。",
					Category: "auth",
					Action:   "ログインしてから再度お試しください。",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext はリクエストコンテキストから解決済みセッションを取得する。
// 未認証リクエストではok=falseを返す。
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
// RequireSessionを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("session not found in context")
	}
	return session.UserID, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
