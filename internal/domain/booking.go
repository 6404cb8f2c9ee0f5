package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the single authoritative lifecycle state of a booking, derived
// from the raw status fields. Raw fields can disagree transiently; the
// phase never does.
type Phase string

const (
	PhaseRequested       Phase = "requested"
	PhaseOfferSent       Phase = "offer_sent"
	PhaseOfferAccepted   Phase = "offer_accepted"
	PhasePaymentPending  Phase = "payment_pending"
	PhasePaidUnconfirmed Phase = "paid_unconfirmed"
	PhaseAllSet          Phase = "all_set"
	PhaseInProgress      Phase = "in_progress"
	PhaseCompleted       Phase = "completed"
	PhaseCancelled       Phase = "cancelled"
	PhaseDeclined        Phase = "declined"
)

// IsTerminal reports whether no further transitions are allowed from p.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled || p == PhaseDeclined
}

// RideStage is the driver-only sub-stage sequence within in_progress.
type RideStage string

const (
	StageHeading        RideStage = "heading"
	StageArrivedPickup  RideStage = "arrived_pickup"
	StageOnboard        RideStage = "onboard"
	StageInTransit      RideStage = "in_transit"
	StageArrivedDropoff RideStage = "arrived_dropoff"
)

// Raw ride_status values. Schema evolution left these overlapping with
// payment_confirmation_status; neither is trusted alone.
const (
	RideStatusPendingDriver  = "pending_driver"
	RideStatusOfferSent      = "offer_sent"
	RideStatusDriverAccepted = "driver_accepted"
	RideStatusCompleted      = "completed"
	RideStatusCancelled      = "cancelled"
	RideStatusDeclined       = "declined"
)

// Raw payment_confirmation_status values.
const (
	PayStatusWaitingForOffer   = "waiting_for_offer"
	PayStatusOfferSent         = "offer_sent"
	PayStatusWaitingForPayment = "waiting_for_payment"
	PayStatusPassengerPaid     = "passenger_paid"
	PayStatusAllSet            = "all_set"
	PayStatusCancelled         = "cancelled"
	PayStatusDeclined          = "declined"
)

// RawStatus carries the three overlapping status fields as persisted.
type RawStatus struct {
	Status                    string `json:"status"`
	RideStatus                string `json:"ride_status"`
	PaymentConfirmationStatus string `json:"payment_confirmation_status"`
}

type Booking struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`

	PassengerID uuid.UUID  `json:"passenger_id" validate:"required"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`

	PickupLocation  string    `json:"pickup_location" validate:"required"`
	DropoffLocation string    `json:"dropoff_location" validate:"required"`
	PickupAt        time.Time `json:"pickup_at" validate:"required"`
	VehicleType     string    `json:"vehicle_type,omitempty"`
	PassengerCount  int       `json:"passenger_count"`
	LuggageCount    int       `json:"luggage_count"`
	FlightNumber    string    `json:"flight_number,omitempty"`

	EstimatedPrice float64  `json:"estimated_price"`
	OfferPrice     *float64 `json:"offer_price,omitempty"`
	Currency       string   `json:"currency"`

	// Legacy and current status fields, reconciled by lifecycle.Normalize.
	Status                    string `json:"status,omitempty"`
	RideStatus                string `json:"ride_status"`
	PaymentConfirmationStatus string `json:"payment_confirmation_status"`

	OfferSentAt        *time.Time `json:"offer_sent_at,omitempty"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	RideStartedAt      *time.Time `json:"ride_started_at,omitempty"`
	RideCompletedAt    *time.Time `json:"ride_completed_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Raw returns the status fields in normalizer vocabulary.
func (b *Booking) Raw() RawStatus {
	return RawStatus{
		Status:                    b.Status,
		RideStatus:                b.RideStatus,
		PaymentConfirmationStatus: b.PaymentConfirmationStatus,
	}
}

// HasDriver reports whether a driver has been assigned.
func (b *Booking) HasDriver() bool {
	return b.DriverID != nil && *b.DriverID != uuid.Nil
}

// HasOffer reports whether an authoritative offer price has been set.
func (b *Booking) HasOffer() bool {
	return b.OfferPrice != nil
}
