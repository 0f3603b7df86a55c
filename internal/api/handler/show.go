package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudomaster00081/AtomicSeats/internal/application"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/seat"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
)

type ShowHandler struct {
	service ShowServiceInterface
}

func NewShowHandler(s ShowServiceInterface) *ShowHandler {
	return &ShowHandler{service: s}
}

type InitializeShowRequest struct {
	Seats []string `json:"seats" validate:"required,min=1" example:"A1,A2,A3"`
}

type ShowResponse struct {
	ID         string    `json:"id" example:"avengers_2026_7pm"`
	TotalSeats int       `json:"total_seats" example:"50"`
	CreatedAt  time.Time `json:"created_at"`
}

type SeatResponse struct {
	SeatID        string     `json:"seat_id"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type TallyResponse struct {
	Available int `json:"available"`
	Held      int `json:"held"`
	Booked    int `json:"booked"`
	Total     int `json:"total"`
}

type SeatStatusResponse struct {
	ShowID string         `json:"show_id"`
	Seats  []SeatResponse `json:"seats"`
	Counts TallyResponse  `json:"counts"`
}

type ResetResponse struct {
	ShowsReset      int `json:"shows_reset"`
	SeatsReset      int `json:"seats_reset"`
	HoldsCleared    int `json:"holds_cleared"`
	BookingsCleared int `json:"bookings_cleared"`
}

func toShowResponse(s *show.Show) ShowResponse {
	return ShowResponse{ID: s.ID, TotalSeats: s.TotalSeats, CreatedAt: s.CreatedAt}
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		SeatID: s.SeatID, Status: string(s.Status), HoldExpiresAt: s.HoldExpiresAt,
	}
}

func toSeatStatusResponse(st *application.SeatStatus) SeatStatusResponse {
	seats := make([]SeatResponse, len(st.Seats))
	for i, s := range st.Seats {
		seats[i] = toSeatResponse(s)
	}
	return SeatStatusResponse{
		ShowID: st.Show.ID,
		Seats:  seats,
		Counts: TallyResponse{
			Available: st.Tally.Available,
			Held:      st.Tally.Held,
			Booked:    st.Tally.Booked,
			Total:     st.Tally.Total,
		},
	}
}

func toResetResponse(r *application.ResetResult) ResetResponse {
	return ResetResponse{
		ShowsReset:      r.ShowsReset,
		SeatsReset:      r.SeatsReset,
		HoldsCleared:    r.HoldsCleared,
		BookingsCleared: r.BookingsCleared,
	}
}

// Initialize godoc
// @Summary 公演を初期化
// @Description 公演と全座席を作成します。既存のshow_idへの再実行は409になります
// @Tags shows
// @Accept json
// @Produce json
// @Param show_id path string true "公演ID"
// @Param request body InitializeShowRequest true "座席一覧"
// @Success 201 {object} ShowResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "公演が既に存在する"
// @Router /shows/{show_id}/initialize [post]
func (h *ShowHandler) Initialize(c echo.Context) error {
	showID := c.Param("show_id")
	var req InitializeShowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "無効なリクエスト"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sh, err := h.service.InitializeShow(c.Request().Context(), application.InitializeShowInput{
		ShowID: showID, SeatIDs: req.Seats,
	})
	if err != nil {
		switch {
		case errors.Is(err, show.ErrShowAlreadyExists):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, show.ErrShowIDRequired),
			errors.Is(err, show.ErrSeatIDsRequired),
			errors.Is(err, show.ErrDuplicateSeatIDs),
			errors.Is(err, show.ErrInvalidTotalSeats):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.JSON(http.StatusCreated, toShowResponse(sh))
}

func (h *ShowHandler) GetSeats(c echo.Context) error {
	showID := c.Param("show_id")
	status, err := h.service.GetSeatStatus(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toSeatStatusResponse(status))
}

func (h *ShowHandler) CountAvailable(c echo.Context) error {
	showID := c.Param("show_id")
	count, err := h.service.CountAvailableSeats(c.Request().Context(), showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// Reset godoc
// @Summary 公演をリセット
// @Description 公演の全座席を空席に戻し、ホールドと予約を破棄します
// @Tags shows
// @Produce json
// @Param show_id path string true "公演ID"
// @Success 200 {object} ResetResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{show_id}/reset [post]
func (h *ShowHandler) Reset(c echo.Context) error {
	showID := c.Param("show_id")
	result, err := h.service.ResetShow(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toResetResponse(result))
}

// ResetAll godoc
// @Summary 全公演をリセット
// @Description 全公演の座席を空席に戻し、ホールドと予約を破棄します
// @Tags shows
// @Produce json
// @Success 200 {object} ResetResponse
// @Router /reset [post]
func (h *ShowHandler) ResetAll(c echo.Context) error {
	result, err := h.service.ResetAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toResetResponse(result))
}
