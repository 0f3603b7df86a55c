package handler

import "github.com/labstack/echo/v4"

// RegisterRoutes はアプリケーションの全ルートを登録する
// 本番サーバーとE2Eテストの両方から使い、経路定義のずれを防ぐ
func RegisterRoutes(e *echo.Echo, showH *ShowHandler, holdH *HoldHandler, healthH *HealthHandler) {
	e.GET("/health", healthH.Check)

	v1 := e.Group("/api/v1")

	v1.POST("/shows/:show_id/initialize", showH.Initialize)
	v1.GET("/shows/:show_id/seats", showH.GetSeats)
	v1.GET("/shows/:show_id/seats/available/count", showH.CountAvailable)
	v1.POST("/shows/:show_id/reset", showH.Reset)
	v1.POST("/reset", showH.ResetAll)

	v1.POST("/holds", holdH.Create)
	v1.POST("/holds/:hold_id/book", holdH.Book)
	v1.POST("/holds/:hold_id/release", holdH.Release)
}
