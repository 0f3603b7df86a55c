package handler

import (
	"context"

	"github.com/sudomaster00081/AtomicSeats/internal/application"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/booking"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/hold"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
)

// ShowServiceInterface は公演サービスのインターフェース
type ShowServiceInterface interface {
	InitializeShow(ctx context.Context, input application.InitializeShowInput) (*show.Show, error)
	GetSeatStatus(ctx context.Context, showID string) (*application.SeatStatus, error)
	CountAvailableSeats(ctx context.Context, showID string) (int, error)
	CountShows(ctx context.Context) (int, error)
	ResetShow(ctx context.Context, showID string) (*application.ResetResult, error)
	ResetAll(ctx context.Context) (*application.ResetResult, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	HoldSeats(ctx context.Context, input application.HoldSeatsInput) (*hold.Hold, error)
	BookHold(ctx context.Context, holdID string) (*booking.Booking, error)
	ReleaseHold(ctx context.Context, holdID string) (*hold.Hold, error)
	CleanupExpiredHolds(ctx context.Context, showID string) (int, error)
}
