package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudomaster00081/AtomicSeats/internal/application"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/booking"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/hold"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/seat"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
)

type HoldHandler struct {
	service ReservationServiceInterface
}

func NewHoldHandler(s ReservationServiceInterface) *HoldHandler {
	return &HoldHandler{service: s}
}

type CreateHoldRequest struct {
	ShowID          string   `json:"show_id" validate:"required" example:"avengers_2026_7pm"`
	Seats           []string `json:"seats" validate:"required,min=1" example:"A1,A2"`
	DurationSeconds int      `json:"duration_seconds" example:"600"`
}

type HoldResponse struct {
	ID              string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShowID          string    `json:"show_id" example:"avengers_2026_7pm"`
	Seats           []string  `json:"seats" example:"A1,A2"`
	Status          string    `json:"status" example:"active"`
	DurationSeconds int       `json:"duration_seconds" example:"600"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ShowID    string    `json:"show_id" example:"avengers_2026_7pm"`
	HoldID    string    `json:"hold_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Seats     []string  `json:"seats" example:"A1,A2"`
	CreatedAt time.Time `json:"created_at"`
}

// ConflictResponse は座席競合時のレスポンス
// どの座席が取れなかったかを unavailable_seats で返す
type ConflictResponse struct {
	Error            string   `json:"error"`
	UnavailableSeats []string `json:"unavailable_seats"`
}

func toHoldResponse(h *hold.Hold) HoldResponse {
	return HoldResponse{
		ID: h.ID, ShowID: h.ShowID, Seats: h.SeatIDs,
		Status: string(h.Status), DurationSeconds: h.DurationSeconds,
		ExpiresAt: h.ExpiresAt, CreatedAt: h.CreatedAt,
	}
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, ShowID: b.ShowID, HoldID: b.HoldID,
		Seats: b.SeatIDs, CreatedAt: b.CreatedAt,
	}
}

// Create godoc
// @Summary 座席をホールド
// @Description 指定座席を時間制限付きで仮押さえします（デフォルト600秒）
// @Tags holds
// @Accept json
// @Produce json
// @Param request body CreateHoldRequest true "ホールド情報"
// @Success 201 {object} HoldResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} ConflictResponse "座席が確保できない"
// @Router /holds [post]
func (h *HoldHandler) Create(c echo.Context) error {
	var req CreateHoldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	hd, err := h.service.HoldSeats(c.Request().Context(), application.HoldSeatsInput{
		ShowID: req.ShowID, SeatIDs: req.Seats, DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		var unavailable *seat.UnavailableError
		switch {
		case errors.As(err, &unavailable):
			return c.JSON(http.StatusConflict, ConflictResponse{
				Error: err.Error(), UnavailableSeats: unavailable.SeatIDs,
			})
		case errors.Is(err, show.ErrShowNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, seat.ErrUnknownSeatID),
			errors.Is(err, hold.ErrShowIDRequired),
			errors.Is(err, hold.ErrSeatIDsRequired),
			errors.Is(err, hold.ErrDuplicateSeatIDs):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, toHoldResponse(hd))
}

// Book godoc
// @Summary ホールドを予約確定
// @Description ホールド中の座席を予約に変換します。同じホールドへの再実行は同じ予約を返します
// @Tags holds
// @Produce json
// @Param hold_id path string true "ホールドID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string "期限切れまたは解放済み"
// @Failure 404 {object} map[string]string
// @Router /holds/{hold_id}/book [post]
func (h *HoldHandler) Book(c echo.Context) error {
	holdID := c.Param("hold_id")
	b, err := h.service.BookHold(c.Request().Context(), holdID)
	if err != nil {
		switch {
		case errors.Is(err, hold.ErrHoldNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, hold.ErrHoldExpired), errors.Is(err, hold.ErrHoldReleased):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Release godoc
// @Summary ホールドを解放
// @Description ホールド中の座席を解放して空席に戻します。非アクティブなホールドへの再実行は成功扱いです
// @Tags holds
// @Produce json
// @Param hold_id path string true "ホールドID"
// @Success 200 {object} HoldResponse
// @Failure 404 {object} map[string]string
// @Router /holds/{hold_id}/release [post]
func (h *HoldHandler) Release(c echo.Context) error {
	holdID := c.Param("hold_id")
	hd, err := h.service.ReleaseHold(c.Request().Context(), holdID)
	if err != nil {
		if errors.Is(err, hold.ErrHoldNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toHoldResponse(hd))
}
