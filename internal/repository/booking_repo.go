package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/booking"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID   string `gorm:"column:id;primaryKey"`
	Code string `gorm:"column:code;uniqueIndex:idx_bookings_code"`

	PassengerID string  `gorm:"column:passenger_id;index"`
	DriverID    *string `gorm:"column:driver_id;index"`

	PickupLocation  string    `gorm:"column:pickup_location"`
	DropoffLocation string    `gorm:"column:dropoff_location"`
	PickupAt        time.Time `gorm:"column:pickup_at"`
	VehicleType     string    `gorm:"column:vehicle_type"`
	PassengerCount  int       `gorm:"column:passenger_count"`
	LuggageCount    int       `gorm:"column:luggage_count"`
	FlightNumber    string    `gorm:"column:flight_number"`

	EstimatedPrice float64  `gorm:"column:estimated_price"`
	OfferPrice     *float64 `gorm:"column:offer_price"`
	Currency       string   `gorm:"column:currency"`

	Status                    string `gorm:"column:status"`
	RideStatus                string `gorm:"column:ride_status;index"`
	PaymentConfirmationStatus string `gorm:"column:payment_confirmation_status"`

	OfferSentAt        *time.Time `gorm:"column:offer_sent_at"`
	PaymentConfirmedAt *time.Time `gorm:"column:payment_confirmed_at"`
	RideStartedAt      *time.Time `gorm:"column:ride_started_at"`
	RideCompletedAt    *time.Time `gorm:"column:ride_completed_at"`

	CancellationReason string `gorm:"column:cancellation_reason"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:                        uuid.MustParse(m.ID),
		Code:                      m.Code,
		PassengerID:               uuid.MustParse(m.PassengerID),
		PickupLocation:            m.PickupLocation,
		DropoffLocation:           m.DropoffLocation,
		PickupAt:                  m.PickupAt,
		VehicleType:               m.VehicleType,
		PassengerCount:            m.PassengerCount,
		LuggageCount:              m.LuggageCount,
		FlightNumber:              m.FlightNumber,
		EstimatedPrice:            m.EstimatedPrice,
		OfferPrice:                m.OfferPrice,
		Currency:                  m.Currency,
		Status:                    m.Status,
		RideStatus:                m.RideStatus,
		PaymentConfirmationStatus: m.PaymentConfirmationStatus,
		OfferSentAt:               m.OfferSentAt,
		PaymentConfirmedAt:        m.PaymentConfirmedAt,
		RideStartedAt:             m.RideStartedAt,
		RideCompletedAt:           m.RideCompletedAt,
		CancellationReason:        m.CancellationReason,
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}
	if m.DriverID != nil {
		id := uuid.MustParse(*m.DriverID)
		b.DriverID = &id
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	m := bookingModel{
		ID:                        b.ID.String(),
		Code:                      b.Code,
		PassengerID:               b.PassengerID.String(),
		PickupLocation:            b.PickupLocation,
		DropoffLocation:           b.DropoffLocation,
		PickupAt:                  b.PickupAt,
		VehicleType:               b.VehicleType,
		PassengerCount:            b.PassengerCount,
		LuggageCount:              b.LuggageCount,
		FlightNumber:              b.FlightNumber,
		EstimatedPrice:            b.EstimatedPrice,
		OfferPrice:                b.OfferPrice,
		Currency:                  b.Currency,
		Status:                    b.Status,
		RideStatus:                b.RideStatus,
		PaymentConfirmationStatus: b.PaymentConfirmationStatus,
		OfferSentAt:               b.OfferSentAt,
		PaymentConfirmedAt:        b.PaymentConfirmedAt,
		RideStartedAt:             b.RideStartedAt,
		RideCompletedAt:           b.RideCompletedAt,
		CancellationReason:        b.CancellationReason,
		CreatedAt:                 b.CreatedAt,
		UpdatedAt:                 b.UpdatedAt,
	}
	if b.DriverID != nil {
		id := b.DriverID.String()
		m.DriverID = &id
	}
	return m
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) && pgErr.Code == "23505" {
			return booking.ErrDuplicateCode
		}
		return tx.Error
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, "id = ?", id.String())
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", m.ID).
		Updates(&m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, role domain.ActorRole, limit, offset int) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	switch role {
	case domain.RoleDriver:
		q = q.Where("driver_id = ?", userID.String())
	case domain.RoleDispatcher:
		// Dispatchers see everything.
	default:
		q = q.Where("passenger_id = ?", userID.String())
	}

	var models []bookingModel
	tx := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// ListStaleRequests returns bookings still waiting on a driver whose request
// was created before the cutoff.
func (r *BookingRepository) ListStaleRequests(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Where("ride_status IN ?", []string{domain.RideStatusPendingDriver, domain.RideStatusOfferSent}).
		Where("created_at < ?", cutoff).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}
