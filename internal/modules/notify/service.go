package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ridebooking/internal/domain"
)

// PreferenceService serves per (user, role) preferences with lazy creation.
type PreferenceService struct {
	repo PreferenceRepository
	log  *zap.Logger
}

func NewPreferenceService(repo PreferenceRepository, log *zap.Logger) *PreferenceService {
	return &PreferenceService{
		repo: repo,
		log:  log.With(zap.String("service", "preferences")),
	}
}

// Get returns the stored preferences, creating defaults on first access.
// A load failure degrades to the conservative fallback instead of failing
// the caller; the error is logged, not surfaced.
func (s *PreferenceService) Get(ctx context.Context, userID uuid.UUID, role domain.ActorRole) *Preference {
	p, err := s.repo.GetByUserRole(ctx, userID, role)
	if err == nil {
		return p
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = DefaultPreferences(userID, role)
		if saveErr := s.repo.Save(ctx, p); saveErr != nil {
			s.log.Warn("could not persist default preferences",
				zap.String("user_id", userID.String()),
				zap.Error(saveErr),
			)
		}
		return p
	}

	s.log.Warn("preference load failed, using conservative fallback",
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.Error(err),
	)
	return fallbackPreferences(userID, role)
}

// Update persists user-edited preferences. Unlike Get, failures here are
// surfaced so the UI can show a retryable message.
func (s *PreferenceService) Update(ctx context.Context, p *Preference) error {
	if p.UserID == uuid.Nil || p.Role == "" {
		return fmt.Errorf("%w: missing user or role", ErrPreferenceSave)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.log.Error("preference save failed",
			zap.String("user_id", p.UserID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrPreferenceSave, err)
	}
	return nil
}
