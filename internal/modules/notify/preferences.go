package notify

import (
	"time"

	"github.com/google/uuid"

	"ridebooking/internal/domain"
)

// Channel is one delivery medium a recipient can enable or disable.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSound Channel = "sound"
)

// Category groups notifications so users can opt out of whole classes.
type Category string

const (
	CategoryBookingUpdates Category = "booking_updates"
	CategoryMessages       Category = "counterpart_messages"
	CategoryPromotions     Category = "promotions"
)

// Preference holds per (user, role) channel and category switches. Created
// lazily with defaults on first access; never deleted while the account
// exists.
type Preference struct {
	ID     int64            `gorm:"primaryKey;column:id" json:"id"`
	UserID uuid.UUID        `gorm:"column:user_id;uniqueIndex:idx_prefs_user_role" json:"user_id"`
	Role   domain.ActorRole `gorm:"column:role;uniqueIndex:idx_prefs_user_role" json:"role"`

	InAppEnabled bool `gorm:"column:in_app_enabled;default:true" json:"in_app_enabled"`
	EmailEnabled bool `gorm:"column:email_enabled;default:true" json:"email_enabled"`
	PushEnabled  bool `gorm:"column:push_enabled;default:true" json:"push_enabled"`
	SoundEnabled bool `gorm:"column:sound_enabled;default:true" json:"sound_enabled"`

	BookingUpdates      bool `gorm:"column:booking_updates;default:true" json:"booking_updates"`
	CounterpartMessages bool `gorm:"column:counterpart_messages;default:true" json:"counterpart_messages"`
	Promotions          bool `gorm:"column:promotions;default:false" json:"promotions"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies table name for GORM
func (Preference) TableName() string {
	return "notification_preferences"
}

// ChannelEnabled reports whether the given channel is on.
func (p *Preference) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelInApp:
		return p.InAppEnabled
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelPush:
		return p.PushEnabled
	case ChannelSound:
		return p.SoundEnabled
	}
	return false
}

// CategoryEnabled reports whether the given category is on.
func (p *Preference) CategoryEnabled(cat Category) bool {
	switch cat {
	case CategoryBookingUpdates:
		return p.BookingUpdates
	case CategoryMessages:
		return p.CounterpartMessages
	case CategoryPromotions:
		return p.Promotions
	}
	return false
}

// DefaultPreferences is what a user gets on first access: everything on
// except promotions.
func DefaultPreferences(userID uuid.UUID, role domain.ActorRole) *Preference {
	return &Preference{
		UserID:              userID,
		Role:                role,
		InAppEnabled:        true,
		EmailEnabled:        true,
		PushEnabled:         true,
		SoundEnabled:        true,
		BookingUpdates:      true,
		CounterpartMessages: true,
		Promotions:          false,
	}
}

// fallbackPreferences is the conservative configuration used when the
// stored preferences cannot be loaded: in-app and email only, booking
// updates on. Loading trouble must never silence booking alerts entirely
// nor fail the caller.
func fallbackPreferences(userID uuid.UUID, role domain.ActorRole) *Preference {
	return &Preference{
		UserID:         userID,
		Role:           role,
		InAppEnabled:   true,
		EmailEnabled:   true,
		BookingUpdates: true,
	}
}
