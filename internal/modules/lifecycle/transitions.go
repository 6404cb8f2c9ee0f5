package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"ridebooking/internal/domain"
)

type TransitionName string

const (
	TransitionRequestSubmitted TransitionName = "request_submitted"
	TransitionOfferSent        TransitionName = "offer_sent"
	TransitionOfferAccepted    TransitionName = "offer_accepted"
	TransitionPaymentSent      TransitionName = "payment_sent"
	TransitionPaymentConfirmed TransitionName = "payment_confirmed"
	TransitionRideStageAdvance TransitionName = "ride_stage_advance"
	TransitionOfferDeclined    TransitionName = "offer_declined"
	TransitionCancelled        TransitionName = "cancelled"
	TransitionRequestTimedOut  TransitionName = "request_timed_out"
)

// stageSequence is the driver-only progression inside in_progress. Advancing
// past the last stage completes the ride.
var stageSequence = []domain.RideStage{
	domain.StageHeading,
	domain.StageArrivedPickup,
	domain.StageOnboard,
	domain.StageInTransit,
	domain.StageArrivedDropoff,
}

// Extra carries the per-transition inputs that are not part of the booking
// record itself.
type Extra struct {
	Actor    domain.ActorRole
	DriverID *uuid.UUID
	Price    *float64
	Reason   string
	Now      time.Time
}

// Result reports what a successfully applied transition did.
type Result struct {
	Name     TransitionName
	Previous domain.Phase
	Next     domain.Phase
	History  domain.HistoryEntry
}

// Transition is one edge of the lifecycle state machine: which phases it is
// legal from and how it mutates the raw fields.
type Transition struct {
	Name           TransitionName
	From           []domain.Phase
	AnyNonTerminal bool
	creationOnly   bool
	apply          func(b *domain.Booking, x Extra) error
}

var transitionTable = map[TransitionName]Transition{
	TransitionRequestSubmitted: {
		Name:         TransitionRequestSubmitted,
		creationOnly: true,
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusPendingDriver
			b.PaymentConfirmationStatus = domain.PayStatusWaitingForOffer
			return nil
		},
	},
	TransitionOfferSent: {
		Name: TransitionOfferSent,
		From: []domain.Phase{domain.PhaseRequested},
		apply: func(b *domain.Booking, x Extra) error {
			if x.DriverID == nil || *x.DriverID == uuid.Nil {
				return ErrMissingDriver
			}
			if x.Price == nil {
				return ErrMissingPrice
			}
			b.DriverID = x.DriverID
			b.OfferPrice = x.Price
			b.RideStatus = domain.RideStatusOfferSent
			b.PaymentConfirmationStatus = domain.PayStatusOfferSent
			at := x.Now
			b.OfferSentAt = &at
			return nil
		},
	},
	TransitionOfferAccepted: {
		Name: TransitionOfferAccepted,
		From: []domain.Phase{domain.PhaseOfferSent},
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusDriverAccepted
			b.PaymentConfirmationStatus = domain.PayStatusWaitingForPayment
			return nil
		},
	},
	TransitionPaymentSent: {
		Name: TransitionPaymentSent,
		From: []domain.Phase{domain.PhasePaymentPending},
		apply: func(b *domain.Booking, x Extra) error {
			b.PaymentConfirmationStatus = domain.PayStatusPassengerPaid
			return nil
		},
	},
	TransitionPaymentConfirmed: {
		Name: TransitionPaymentConfirmed,
		From: []domain.Phase{domain.PhasePaidUnconfirmed},
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusDriverAccepted
			b.PaymentConfirmationStatus = domain.PayStatusAllSet
			at := x.Now
			b.PaymentConfirmedAt = &at
			return nil
		},
	},
	TransitionRideStageAdvance: {
		Name: TransitionRideStageAdvance,
		From: []domain.Phase{domain.PhaseAllSet, domain.PhaseInProgress},
		apply: func(b *domain.Booking, x Extra) error {
			current, ok := StageOf(b.Raw())
			if !ok {
				// Leaving all_set: the ride starts.
				b.RideStatus = string(stageSequence[0])
				at := x.Now
				b.RideStartedAt = &at
				return nil
			}
			for i, st := range stageSequence {
				if st != current {
					continue
				}
				if i == len(stageSequence)-1 {
					b.RideStatus = domain.RideStatusCompleted
					at := x.Now
					b.RideCompletedAt = &at
					return nil
				}
				b.RideStatus = string(stageSequence[i+1])
				return nil
			}
			return ErrInvalidState
		},
	},
	TransitionOfferDeclined: {
		Name: TransitionOfferDeclined,
		From: []domain.Phase{domain.PhaseOfferSent},
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusDeclined
			b.PaymentConfirmationStatus = domain.PayStatusDeclined
			return nil
		},
	},
	TransitionCancelled: {
		Name:           TransitionCancelled,
		AnyNonTerminal: true,
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusCancelled
			b.PaymentConfirmationStatus = domain.PayStatusCancelled
			b.CancellationReason = x.Reason
			return nil
		},
	},
	TransitionRequestTimedOut: {
		Name: TransitionRequestTimedOut,
		From: []domain.Phase{domain.PhaseRequested, domain.PhaseOfferSent},
		apply: func(b *domain.Booking, x Extra) error {
			b.RideStatus = domain.RideStatusCancelled
			b.PaymentConfirmationStatus = domain.PayStatusCancelled
			b.CancellationReason = "driver response window elapsed"
			return nil
		},
	},
}

// Apply runs a named transition against the booking in place. It validates
// the precondition phase against the current canonical phase, mutates the
// raw fields, and returns the audit entry to append. The booking is left
// untouched on any error.
func Apply(b *domain.Booking, name TransitionName, x Extra) (*Result, error) {
	tr, ok := transitionTable[name]
	if !ok {
		return nil, ErrUnknownTransition
	}

	if x.Now.IsZero() {
		x.Now = time.Now().UTC()
	}
	if x.Actor == "" {
		x.Actor = domain.RoleSystem
	}

	prev := Normalize(b.Raw())
	if err := checkPrecondition(tr, b, prev); err != nil {
		return nil, err
	}

	// Mutate a copy first so a failed apply leaves the caller's booking as is.
	next := *b
	if err := tr.apply(&next, x); err != nil {
		return nil, err
	}
	next.UpdatedAt = x.Now
	*b = next

	phase := Normalize(b.Raw())
	entry := domain.HistoryEntry{
		BookingID: b.ID,
		Status:    string(phase),
		Actor:     x.Actor,
		CreatedAt: x.Now,
		Metadata: map[string]any{
			"transition":     string(name),
			"previous_phase": string(prev),
		},
	}
	if x.Reason != "" {
		entry.Metadata["reason"] = x.Reason
	}
	if x.Price != nil {
		entry.Metadata["price"] = *x.Price
	}
	if stage, ok := StageOf(b.Raw()); ok {
		entry.Metadata["stage"] = string(stage)
	}

	return &Result{Name: name, Previous: prev, Next: phase, History: entry}, nil
}

func checkPrecondition(tr Transition, b *domain.Booking, prev domain.Phase) error {
	if tr.creationOnly {
		if b.RideStatus != "" || b.PaymentConfirmationStatus != "" {
			return ErrInvalidState
		}
		return nil
	}
	if tr.AnyNonTerminal {
		if prev.IsTerminal() {
			return ErrInvalidState
		}
		return nil
	}
	for _, from := range tr.From {
		if from == prev {
			return nil
		}
	}
	return ErrInvalidState
}
