package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
	"ridebooking/internal/modules/store"
	"ridebooking/internal/modules/timeline"
	"ridebooking/internal/pkg/validator"
)

type Service struct {
	bookings  BookingRepository
	history   HistoryRepository
	cache     BookingCache
	oracle    PaymentOracle
	emitter   ChangeEmitter
	projector TimelineProjector

	minPickupLead time.Duration
	offerWindow   time.Duration

	log *zap.Logger
}

func NewService(
	bookings BookingRepository,
	history HistoryRepository,
	cache BookingCache,
	oracle PaymentOracle,
	emitter ChangeEmitter,
	projector TimelineProjector,
	minPickupLead time.Duration,
	offerWindow time.Duration,
	log *zap.Logger,
) *Service {
	return &Service{
		bookings:      bookings,
		history:       history,
		cache:         cache,
		oracle:        oracle,
		emitter:       emitter,
		projector:     projector,
		minPickupLead: minPickupLead,
		offerWindow:   offerWindow,
		log:           log.With(zap.String("service", "booking")),
	}
}

// Create registers a new ride request for the passenger and runs the
// request_submitted transition. The minimum pickup lead time is enforced
// here, at creation, not inside the state machine.
func (s *Service) Create(ctx context.Context, passengerID uuid.UUID, req CreateBookingRequest) (*domain.Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errs)
	}

	now := time.Now().UTC()
	if req.PickupAt.Before(now.Add(s.minPickupLead)) {
		return nil, ErrPickupTooSoon
	}

	b := &domain.Booking{
		ID:              uuid.New(),
		Code:            generateRideCode(),
		PassengerID:     passengerID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupAt:        req.PickupAt,
		VehicleType:     req.VehicleType,
		PassengerCount:  req.PassengerCount,
		LuggageCount:    req.LuggageCount,
		FlightNumber:    req.FlightNumber,
		EstimatedPrice:  req.EstimatedPrice,
		Currency:        "USD",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	res, err := lifecycle.Apply(b, lifecycle.TransitionRequestSubmitted, lifecycle.Extra{
		Actor: domain.RolePassenger,
		Now:   now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		s.log.Error("create booking failed",
			zap.String("passenger_id", passengerID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.appendHistory(ctx, &res.History)
	s.cache.Upsert(ctx, b)
	s.emit(ctx, store.ChangeEvent{Type: store.EventInsert, Concern: store.ConcernBooking, Booking: b})

	s.log.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("code", b.Code),
		zap.String("passenger_id", passengerID.String()),
	)
	return b, nil
}

// SendOffer assigns a driver and an authoritative price. Dispatcher only.
func (s *Service) SendOffer(ctx context.Context, actor domain.ActorRole, id uuid.UUID, req SendOfferRequest) (*domain.Booking, error) {
	if actor != domain.RoleDispatcher {
		return nil, ErrForbidden
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errs)
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid driver id", ErrValidation)
	}

	price := req.Price
	b, err := s.applyTransition(ctx, id, lifecycle.TransitionOfferSent, lifecycle.Extra{
		Actor:    actor,
		DriverID: &driverID,
		Price:    &price,
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, store.ChangeEvent{Type: store.EventUpdate, Concern: store.ConcernOffers, Booking: b})
	return b, nil
}

// AcceptOffer moves an offered booking to payment_pending.
func (s *Service) AcceptOffer(ctx context.Context, actor domain.ActorRole, id uuid.UUID) (*domain.Booking, error) {
	if actor != domain.RolePassenger {
		return nil, ErrForbidden
	}
	return s.applyTransition(ctx, id, lifecycle.TransitionOfferAccepted, lifecycle.Extra{Actor: actor})
}

// DeclineOffer terminates an offered booking.
func (s *Service) DeclineOffer(ctx context.Context, actor domain.ActorRole, id uuid.UUID) (*domain.Booking, error) {
	if actor != domain.RolePassenger {
		return nil, ErrForbidden
	}
	return s.applyTransition(ctx, id, lifecycle.TransitionOfferDeclined, lifecycle.Extra{Actor: actor})
}

// MarkPaymentSent records that the passenger completed checkout. The
// booking stays paid_unconfirmed until the provider confirms.
func (s *Service) MarkPaymentSent(ctx context.Context, actor domain.ActorRole, id uuid.UUID) (*domain.Booking, error) {
	if actor != domain.RolePassenger {
		return nil, ErrForbidden
	}
	return s.applyTransition(ctx, id, lifecycle.TransitionPaymentSent, lifecycle.Extra{Actor: actor})
}

// ConfirmPayment asks the payment oracle whether the booking is paid and,
// when it is, runs the payment_confirmed transition. A provider outage is
// surfaced as a retryable error, never applied speculatively.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	paid, err := s.oracle.IsPaid(ctx, id)
	if err != nil {
		s.log.Warn("payment oracle unreachable",
			zap.String("booking_id", id.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrPaymentCheckFailed, err)
	}
	if !paid {
		return nil, ErrPaymentNotConfirmed
	}
	return s.applyTransition(ctx, id, lifecycle.TransitionPaymentConfirmed, lifecycle.Extra{Actor: domain.RoleSystem})
}

// AdvanceRideStage steps the driver-only sub-stage sequence.
func (s *Service) AdvanceRideStage(ctx context.Context, actor domain.ActorRole, id uuid.UUID) (*domain.Booking, error) {
	if actor != domain.RoleDriver {
		return nil, ErrForbidden
	}
	return s.applyTransition(ctx, id, lifecycle.TransitionRideStageAdvance, lifecycle.Extra{Actor: actor})
}

// Cancel terminates the booking from any non-terminal phase. Counterpart
// notification happens through the dispatcher listening on the store.
func (s *Service) Cancel(ctx context.Context, actor domain.ActorRole, id uuid.UUID, reason string) (*domain.Booking, error) {
	return s.applyTransition(ctx, id, lifecycle.TransitionCancelled, lifecycle.Extra{Actor: actor, Reason: reason})
}

// ExpireStaleRequests times out ride requests whose driver-response window
// elapsed. Returns the number of bookings expired.
func (s *Service) ExpireStaleRequests(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.offerWindow)
	stale, err := s.bookings.ListStaleRequests(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		b := stale[i]
		if _, err := s.applyTransition(ctx, b.ID, lifecycle.TransitionRequestTimedOut, lifecycle.Extra{Actor: domain.RoleSystem}); err != nil {
			// Raced with a concurrent transition; last write wins, skip.
			if errors.Is(err, lifecycle.ErrInvalidState) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// GetByID serves reads from the synchronized cache, falling back to
// persistence and warming the cache on a miss.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if b, err := s.cache.Get(id); err == nil {
		return b, nil
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.cache.Upsert(ctx, b)
	return b, nil
}

// GetTimeline projects the de-duplicated lifecycle timeline.
func (s *Service) GetTimeline(ctx context.Context, id uuid.UUID, order timeline.Order) ([]timeline.Event, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.projector.Project(ctx, id, order)
}

// ListForUser returns the user's bookings in their role.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, role domain.ActorRole, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.ListByUser(ctx, userID, role, limit, offset)
}

// applyTransition is the single write path for lifecycle moves: load,
// validate and mutate via the transition table, persist, append audit,
// then publish through the cache. Concurrent transitions resolve by event
// arrival order (last write wins), matching the feed's guarantees.
func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, name lifecycle.TransitionName, extra lifecycle.Extra) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res, err := lifecycle.Apply(b, name, extra)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, b); err != nil {
		s.log.Error("persist transition failed",
			zap.String("booking_id", id.String()),
			zap.String("transition", string(name)),
			zap.Error(err),
		)
		return nil, err
	}

	s.appendHistory(ctx, &res.History)
	s.cache.Upsert(ctx, b)
	s.emit(ctx, store.ChangeEvent{Type: store.EventUpdate, Concern: store.ConcernBooking, Booking: b})

	s.log.Info("transition applied",
		zap.String("booking_id", b.ID.String()),
		zap.String("transition", string(name)),
		zap.String("previous", string(res.Previous)),
		zap.String("phase", string(res.Next)),
		zap.String("actor", string(res.History.Actor)),
	)
	return b, nil
}

func (s *Service) appendHistory(ctx context.Context, e *domain.HistoryEntry) {
	if err := s.history.Append(ctx, e); err != nil {
		// The audit trail is best effort relative to the already-persisted
		// transition; the projector tolerates gaps.
		s.log.Error("append history failed",
			zap.String("booking_id", e.BookingID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) emit(ctx context.Context, ev store.ChangeEvent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, ev); err != nil {
		s.log.Warn("change feed emit failed",
			zap.String("booking_id", ev.Booking.ID.String()),
			zap.Error(err),
		)
	}
}

// generateRideCode builds the human-facing short code,
// RIDE-YYYYMMDD-HHMMSS-RANDOM.
func generateRideCode() string {
	now := time.Now().UTC()
	return fmt.Sprintf("RIDE-%s-%s-%04d", now.Format("20060102"), now.Format("150405"), rand.Intn(10000))
}
