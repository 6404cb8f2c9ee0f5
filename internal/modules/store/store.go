package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
)

var ErrNotFound = errors.New("booking not in store")

// Listener is notified after the cached canonical phase of a booking
// actually changed. Notification dispatch and outbound feeds hang off this.
type Listener interface {
	OnPhaseChanged(ctx context.Context, b *domain.Booking, previous domain.Phase)
}

// Store is the synchronized booking cache: a single logical writer (all
// mutations funnel through Upsert), many readers. Readers always observe a
// fully merged record, never a partial update.
type Store struct {
	mu        sync.RWMutex
	bookings  map[uuid.UUID]domain.Booking
	phases    map[uuid.UUID]domain.Phase
	listeners []Listener
	log       *zap.Logger
}

func New(log *zap.Logger) *Store {
	return &Store{
		bookings: make(map[uuid.UUID]domain.Booking),
		phases:   make(map[uuid.UUID]domain.Phase),
		log:      log.With(zap.String("service", "store")),
	}
}

// AddListener registers a phase-change consumer. Not safe to call after the
// store started receiving events; wire listeners at startup.
func (s *Store) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Get returns a copy of the cached booking. Never suspends.
func (s *Store) Get(id uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := b
	return &out, nil
}

// Phase returns the last cached canonical phase for a booking.
func (s *Store) Phase(id uuid.UUID) (domain.Phase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.phases[id]
	return p, ok
}

// Len reports the number of cached bookings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}

// Upsert merges a full or partial snapshot into the cache, re-derives the
// canonical phase and fans out a phase-change event when the phase moved.
// Applying the same snapshot twice is idempotent: the second application
// changes nothing and emits nothing. The comparison is always "new
// normalized phase vs last cached phase" — arrival order is the only
// ordering this store assumes.
func (s *Store) Upsert(ctx context.Context, snapshot *domain.Booking) {
	if snapshot == nil || snapshot.ID == uuid.Nil {
		return
	}

	s.mu.Lock()
	merged := snapshot
	if existing, ok := s.bookings[snapshot.ID]; ok {
		m := mergeBooking(existing, *snapshot)
		merged = &m
	}
	phase := lifecycle.Normalize(merged.Raw())
	previous, seen := s.phases[merged.ID]
	s.bookings[merged.ID] = *merged
	s.phases[merged.ID] = phase
	s.mu.Unlock()

	if seen && previous == phase {
		return
	}

	s.log.Info("booking phase changed",
		zap.String("booking_id", merged.ID.String()),
		zap.String("previous", string(previous)),
		zap.String("phase", string(phase)),
	)

	out := *merged
	for _, l := range s.listeners {
		l.OnPhaseChanged(ctx, &out, previous)
	}
}

// Evict drops a booking from the cache, e.g. after its subscription was
// torn down and the view closed.
func (s *Store) Evict(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, id)
	delete(s.phases, id)
}

// mergeBooking overlays a partial snapshot onto the cached record. Zero
// values mean "absent" and keep the cached field; a driver, once assigned,
// is therefore never cleared by a late partial update.
func mergeBooking(dst, src domain.Booking) domain.Booking {
	if src.Code != "" {
		dst.Code = src.Code
	}
	if src.PassengerID != uuid.Nil {
		dst.PassengerID = src.PassengerID
	}
	if src.DriverID != nil {
		dst.DriverID = src.DriverID
	}
	if src.PickupLocation != "" {
		dst.PickupLocation = src.PickupLocation
	}
	if src.DropoffLocation != "" {
		dst.DropoffLocation = src.DropoffLocation
	}
	if !src.PickupAt.IsZero() {
		dst.PickupAt = src.PickupAt
	}
	if src.VehicleType != "" {
		dst.VehicleType = src.VehicleType
	}
	if src.PassengerCount != 0 {
		dst.PassengerCount = src.PassengerCount
	}
	if src.LuggageCount != 0 {
		dst.LuggageCount = src.LuggageCount
	}
	if src.FlightNumber != "" {
		dst.FlightNumber = src.FlightNumber
	}
	if src.EstimatedPrice != 0 {
		dst.EstimatedPrice = src.EstimatedPrice
	}
	if src.OfferPrice != nil {
		dst.OfferPrice = src.OfferPrice
	}
	if src.Currency != "" {
		dst.Currency = src.Currency
	}
	if src.Status != "" {
		dst.Status = src.Status
	}
	if src.RideStatus != "" {
		dst.RideStatus = src.RideStatus
	}
	if src.PaymentConfirmationStatus != "" {
		dst.PaymentConfirmationStatus = src.PaymentConfirmationStatus
	}
	if src.OfferSentAt != nil {
		dst.OfferSentAt = src.OfferSentAt
	}
	if src.PaymentConfirmedAt != nil {
		dst.PaymentConfirmedAt = src.PaymentConfirmedAt
	}
	if src.RideStartedAt != nil {
		dst.RideStartedAt = src.RideStartedAt
	}
	if src.RideCompletedAt != nil {
		dst.RideCompletedAt = src.RideCompletedAt
	}
	if src.CancellationReason != "" {
		dst.CancellationReason = src.CancellationReason
	}
	if !src.CreatedAt.IsZero() {
		dst.CreatedAt = src.CreatedAt
	}
	if !src.UpdatedAt.IsZero() {
		dst.UpdatedAt = src.UpdatedAt
	}
	return dst
}
