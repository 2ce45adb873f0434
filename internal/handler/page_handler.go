package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/countboard/internal/middleware"
	"github.com/hitoshi/countboard/internal/model"
)

// UserRecordProvisioner はページロードが必要とするユーザーレコード保証のインターフェース。
type UserRecordProvisioner interface {
	EnsureUserRecord(ctx context.Context, session *model.Session) (*model.UserData, error)
}

// CounterReader はページロードが必要とするカウンター読み取りのインターフェース。
type CounterReader interface {
	LoadGlobalCounter(ctx context.Context) (int64, error)
	LoadPageUserData(ctx context.Context, id int64) (*model.UserData, error)
	ListUsers(ctx context.Context) ([]*model.UserData, error)
}

// PageHandler はページロード用データのHTTPハンドラー。
// 各レスポンスはDBの特定時点の読み取りであり、ライブ更新はrealtime側が担う。
type PageHandler struct {
	provisioner UserRecordProvisioner
	counters    CounterReader
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(provisioner UserRecordProvisioner, counters CounterReader) *PageHandler {
	return &PageHandler{
		provisioner: provisioner,
		counters:    counters,
	}
}

// sessionResponse はレイアウトレスポンス内のセッション表現。
type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// userDataResponse はuser_dataレコードのAPI表現。
type userDataResponse struct {
	ID      int64  `json:"id"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Counter int64  `json:"counter"`
}

// newUserDataResponse はnilを保ったままuser_dataをAPI表現に変換する。
func newUserDataResponse(data *model.UserData) *userDataResponse {
	if data == nil {
		return nil
	}
	return &userDataResponse{
		ID:      data.ID,
		UserID:  data.UserID,
		Email:   data.Email,
		Counter: data.Counter,
	}
}

// Layout はレイアウト描画に必要なセッションとユーザーレコードを返す。
// GET /api/layout
// 未ログインの場合は両方nullを返す（正常系）。
// レコード保証の失敗はログに記録し、user_data: nullに縮退させる。
// ページロードがプロビジョニング失敗で落ちることはない。
func (h *PageHandler) Layout(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFromContext(r.Context())

	var sessionBody *sessionResponse
	if session != nil {
		sessionBody = &sessionResponse{
			UserID:    session.UserID,
			Email:     session.Email,
			ExpiresAt: session.ExpiresAt,
		}
	}

	userData, err := h.provisioner.EnsureUserRecord(r.Context(), session)
	if err != nil {
		slog.Error("failed to ensure user record",
			slog.String("error", err.Error()),
		)
		userData = nil
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session":   sessionBody,
		"user_data": newUserDataResponse(userData),
	})
}

// Home はホームページ描画に必要なグローバルカウンターとユーザー一覧を返す。
// GET /api/pages/home
// ユーザー一覧はuser_dataのid昇順。
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	globalCounter, err := h.counters.LoadGlobalCounter(r.Context())
	if err != nil {
		slog.Error("failed to load global counter",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	users, err := h.counters.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	// 空でも[]として返す
	userBodies := make([]*userDataResponse, 0, len(users))
	for _, u := range users {
		userBodies = append(userBodies, newUserDataResponse(u))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"global_counter": globalCounter,
		"users":          userBodies,
	})
}

// UserPage はユーザーページ描画に必要なレコードを返す。
// GET /api/pages/user/{id}
// idはURLで指定された任意のプロフィールID（user_dataのid）であり、
// ログイン中のユーザーとは無関係。見つからない場合はuser_data: nullを返す。
func (h *PageHandler) UserPage(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("id must be an integer"))
		return
	}

	userData, err := h.counters.LoadPageUserData(r.Context(), id)
	if err != nil {
		slog.Error("failed to load page user data",
			slog.Int64("user_data_id", id),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_data": newUserDataResponse(userData),
	})
}
