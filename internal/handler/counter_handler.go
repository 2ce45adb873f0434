package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/countboard/internal/middleware"
	"github.com/hitoshi/countboard/internal/model"
)

// CounterWriter はカウンター更新のインターフェース。
type CounterWriter interface {
	IncrementUserCounter(ctx context.Context, userID string) (*model.UserData, error)
	IncrementGlobalCounter(ctx context.Context) (int64, error)
}

// CounterMetricsRecorder はカウンター更新の記録先。メトリクス用。
type CounterMetricsRecorder interface {
	RecordCounterIncrement(scope string)
}

// CounterHandler はカウンター更新のHTTPハンドラー。
type CounterHandler struct {
	counters CounterWriter
	metrics  CounterMetricsRecorder
}

// NewCounterHandler はCounterHandlerを生成する。metricsはnilでもよい。
func NewCounterHandler(counters CounterWriter, metrics CounterMetricsRecorder) *CounterHandler {
	return &CounterHandler{
		counters: counters,
		metrics:  metrics,
	}
}

// IncrementOwn はログイン中ユーザー自身のカウンターを+1する。
// POST /api/counter/increment
// RequireSessionの後段に配置する。
func (h *CounterHandler) IncrementOwn(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := h.counters.IncrementUserCounter(r.Context(), userID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusNotFound, apiErr)
			return
		}
		slog.Error("failed to increment user counter",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCounterIncrement("user")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_data": newUserDataResponse(data),
	})
}

// IncrementGlobal はグローバルカウンターを+1する。
// POST /api/counter/global/increment
// グローバルカウンターは全訪問者共有のため、認証は不要。
func (h *CounterHandler) IncrementGlobal(w http.ResponseWriter, r *http.Request) {
	value, err := h.counters.IncrementGlobalCounter(r.Context())
	if err != nil {
		slog.Error("failed to increment global counter",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCounterIncrement("global")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"global_counter": value,
	})
}
