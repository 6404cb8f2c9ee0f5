package booking

import (
	"time"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
)

type CreateBookingRequest struct {
	PickupLocation  string    `json:"pickup_location" validate:"required"`
	DropoffLocation string    `json:"dropoff_location" validate:"required"`
	PickupAt        time.Time `json:"pickup_at" validate:"required"`
	VehicleType     string    `json:"vehicle_type,omitempty"`
	PassengerCount  int       `json:"passenger_count" validate:"gte=1,lte=16"`
	LuggageCount    int       `json:"luggage_count" validate:"gte=0"`
	FlightNumber    string    `json:"flight_number,omitempty"`
	EstimatedPrice  float64   `json:"estimated_price" validate:"gte=0"`
}

type SendOfferRequest struct {
	DriverID string  `json:"driver_id" validate:"required,uuid"`
	Price    float64 `json:"price" validate:"required,gt=0"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// BookingResponse is the booking as consumers see it: raw fields replaced
// by the canonical phase, counterpart contact revealed only once the
// booking is all set.
type BookingResponse struct {
	ID              string            `json:"id"`
	Code            string            `json:"code"`
	Phase           domain.Phase      `json:"phase"`
	Stage           domain.RideStage  `json:"stage,omitempty"`
	PickupLocation  string            `json:"pickup_location"`
	DropoffLocation string            `json:"dropoff_location"`
	PickupAt        time.Time         `json:"pickup_at"`
	VehicleType     string            `json:"vehicle_type,omitempty"`
	PassengerCount  int               `json:"passenger_count"`
	LuggageCount    int               `json:"luggage_count"`
	FlightNumber    string            `json:"flight_number,omitempty"`
	EstimatedPrice  float64           `json:"estimated_price"`
	OfferPrice      *float64          `json:"offer_price,omitempty"`
	Currency        string            `json:"currency"`
	Counterpart     *domain.Party     `json:"counterpart,omitempty"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToResponse projects a booking for a viewer role. Counterpart identity is
// unlocked by the payment_confirmed transition, i.e. phase all_set and
// later.
func ToResponse(b *domain.Booking, viewer domain.ActorRole) BookingResponse {
	phase := lifecycle.Normalize(b.Raw())

	resp := BookingResponse{
		ID:                 b.ID.String(),
		Code:               b.Code,
		Phase:              phase,
		PickupLocation:     b.PickupLocation,
		DropoffLocation:    b.DropoffLocation,
		PickupAt:           b.PickupAt,
		VehicleType:        b.VehicleType,
		PassengerCount:     b.PassengerCount,
		LuggageCount:       b.LuggageCount,
		FlightNumber:       b.FlightNumber,
		EstimatedPrice:     b.EstimatedPrice,
		OfferPrice:         b.OfferPrice,
		Currency:           b.Currency,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if stage, ok := lifecycle.StageOf(b.Raw()); ok {
		resp.Stage = stage
	}

	if contactUnlocked(phase) {
		if cp, ok := b.Counterpart(viewer); ok {
			resp.Counterpart = &cp
		}
	}
	return resp
}

func contactUnlocked(phase domain.Phase) bool {
	switch phase {
	case domain.PhaseAllSet, domain.PhaseInProgress, domain.PhaseCompleted:
		return true
	}
	return false
}
