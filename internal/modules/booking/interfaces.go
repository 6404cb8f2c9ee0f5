package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/store"
	"ridebooking/internal/modules/timeline"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	ListByUser(ctx context.Context, userID uuid.UUID, role domain.ActorRole, limit, offset int) ([]domain.Booking, error)
	ListStaleRequests(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, e *domain.HistoryEntry) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error)
}

// BookingCache is the synchronized store surface the service writes
// through. All cache mutations funnel through Upsert.
type BookingCache interface {
	Get(id uuid.UUID) (*domain.Booking, error)
	Upsert(ctx context.Context, b *domain.Booking)
}

// PaymentOracle is the opaque payment provider boundary: it only answers
// whether a booking has been paid.
type PaymentOracle interface {
	IsPaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// ChangeEmitter publishes change-feed events for other processes. Emission
// is best effort; the durable write has already happened.
type ChangeEmitter interface {
	Emit(ctx context.Context, ev store.ChangeEvent) error
}

type TimelineProjector interface {
	Project(ctx context.Context, bookingID uuid.UUID, order timeline.Order) ([]timeline.Event, error)
}
