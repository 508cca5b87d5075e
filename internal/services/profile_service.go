package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendly/internal/core"
	"spendly/internal/ports"
)

type ProfileService struct {
	profiles ports.ProfileStore
	usage    ports.UsageStore
	now      func() time.Time
}

func NewProfileService(profiles ports.ProfileStore, usage ports.UsageStore) *ProfileService {
	return &ProfileService{profiles: profiles, usage: usage, now: time.Now}
}

// GetProfile returns the user's profile, creating it on first access.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	if err := requireUser(userID); err != nil {
		return core.Profile{}, err
	}
	return s.profiles.EnsureProfile(ctx, userID)
}

// UpdateProfile sets the display name; a blank name clears it.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, fullName *string) (core.Profile, error) {
	if err := requireUser(userID); err != nil {
		return core.Profile{}, err
	}
	if fullName != nil && len(strings.TrimSpace(*fullName)) > 200 {
		return core.Profile{}, fmt.Errorf("%w: full name too long", core.ErrValidation)
	}
	if _, err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if err := s.profiles.UpdateProfileName(ctx, userID, nonEmpty(fullName)); err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.profiles.EnsureProfile(ctx, userID)
}

// GetCreditsAndUsage reports the credit balance with the last 30 days of
// AI usage.
func (s *ProfileService) GetCreditsAndUsage(ctx context.Context, userID string) (core.CreditsData, error) {
	if err := requireUser(userID); err != nil {
		return core.CreditsData{}, err
	}
	p, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return core.CreditsData{}, fmt.Errorf("load profile: %w", err)
	}
	logs, err := s.usage.ListUsageSince(ctx, userID, s.now().Add(-core.UsageWindow), core.UsageLimit)
	if err != nil {
		return core.CreditsData{}, fmt.Errorf("load usage: %w", err)
	}
	return core.SummarizeCredits(p.CreditsUSD, logs), nil
}
