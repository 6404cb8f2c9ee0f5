package domain

import "github.com/google/uuid"

// Party is a tagged view of "who is on this booking" so that
// passenger/driver lookups are resolved once, not ad hoc per call site.
type Party struct {
	Role   ActorRole `json:"role"`
	UserID uuid.UUID `json:"user_id"`
}

// Parties returns every human party attached to the booking. The dispatcher
// is implied by role, not stored per booking.
func (b *Booking) Parties() []Party {
	out := []Party{{Role: RolePassenger, UserID: b.PassengerID}}
	if b.HasDriver() {
		out = append(out, Party{Role: RoleDriver, UserID: *b.DriverID})
	}
	return out
}

// Counterpart resolves the opposite human party for a given role. ok is
// false when the counterpart does not exist yet (driver before assignment)
// or the role has no single counterpart.
func (b *Booking) Counterpart(role ActorRole) (Party, bool) {
	switch role {
	case RolePassenger:
		if b.HasDriver() {
			return Party{Role: RoleDriver, UserID: *b.DriverID}, true
		}
	case RoleDriver:
		return Party{Role: RolePassenger, UserID: b.PassengerID}, true
	}
	return Party{}, false
}
