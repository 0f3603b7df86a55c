package handler

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	db          *sqlx.DB
	showService ShowServiceInterface
}

// NewHealthHandler はHealthHandlerを作成する
// db と showService は nil 可（依存なしの軽量チェックになる）
func NewHealthHandler(db *sqlx.DB, showService ShowServiceInterface) *HealthHandler {
	return &HealthHandler{db: db, showService: showService}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database,omitempty"`
	Shows     int    `json:"shows"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションとデータベースの健全性を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if h.db != nil {
		if err := h.db.PingContext(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp.Database = "ok"
	}

	if h.showService != nil {
		if count, err := h.showService.CountShows(c.Request().Context()); err == nil {
			resp.Shows = count
		}
	}

	return c.JSON(http.StatusOK, resp)
}
