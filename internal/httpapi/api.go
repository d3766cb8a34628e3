package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuqie6/TraceBoard/internal/service"
)

// API 查询端点集合
type API struct {
	stats    *service.StatsService
	recorder *service.Recorder
}

// NewAPI 创建 API
func NewAPI(stats *service.StatsService, recorder *service.Recorder) *API {
	return &API{stats: stats, recorder: recorder}
}

// RegisterRoutes 注册路由
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", a.handleHealth)
		api.Get("/key_counts", a.handleKeyCounts)
		api.Post("/key_events", a.handleKeyEvent)
		api.Get("/daily_activity", a.handleDailyActivity)
		api.Get("/hourly_activity", a.handleHourlyActivity)
		api.Get("/monthly_activity", a.handleMonthlyActivity)
		api.Get("/hotkey_counts", a.handleHotkeyCounts)
		api.Get("/hotkey_daily", a.handleHotkeyDaily)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleKeyCounts 全部按键总计，按次数降序
func (a *API) handleKeyCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := a.stats.KeyTotals(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// keyEventRequest 按键事件上报体（与旧版 /key_events 契约一致）
type keyEventRequest struct {
	KeyName        string `json:"key_name"`
	VirtualKeyCode int    `json:"virtual_key_code"`
}

// handleKeyEvent HTTP 侧的按键上报
// 不经过组合键状态机，只做普通按键计数。
func (a *API) handleKeyEvent(w http.ResponseWriter, r *http.Request) {
	var req keyEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体无法解析")
		return
	}
	if req.VirtualKeyCode <= 0 {
		writeError(w, http.StatusBadRequest, "virtual_key_code 无效")
		return
	}
	if err := a.recorder.RecordKeyEvent(r.Context(), req.VirtualKeyCode, req.KeyName, nil); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) handleDailyActivity(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, "days 必须是整数")
		return
	}
	points, err := a.stats.DailyActivity(r.Context(), days, r.URL.Query().Get("end_date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (a *API) handleHourlyActivity(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", 24)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours 必须是整数")
		return
	}
	points, err := a.stats.HourlyActivity(r.Context(), hours, r.URL.Query().Get("end_hour"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (a *API) handleMonthlyActivity(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 12)
	if err != nil {
		writeError(w, http.StatusBadRequest, "months 必须是整数")
		return
	}
	points, err := a.stats.MonthlyActivity(r.Context(), months, r.URL.Query().Get("end_month"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (a *API) handleHotkeyCounts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit 必须是整数")
		return
	}
	counts, err := a.stats.HotkeyTotals(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (a *API) handleHotkeyDaily(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, "days 必须是整数")
		return
	}
	points, err := a.stats.HotkeySeries(r.Context(), r.URL.Query().Get("hotkey_id"), days, r.URL.Query().Get("end_date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// writeServiceError 服务层错误到 HTTP 状态的唯一映射点
// 参数错误对客户端可见，存储错误一律收敛为通用 500。
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidParam) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("查询处理失败", "error", err)
	writeError(w, http.StatusInternalServerError, "内部错误")
}
