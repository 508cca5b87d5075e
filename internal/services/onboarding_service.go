package services

import (
	"context"
	"fmt"

	"spendly/internal/core"
	"spendly/internal/ports"
)

// OnboardingService drives the first-run setup: batch creation of the
// initial taxonomy and marking the profile as onboarded.
type OnboardingService struct {
	taxonomy *TaxonomyService
	profiles ports.ProfileStore
}

func NewOnboardingService(taxonomy *TaxonomyService, profiles ports.ProfileStore) *OnboardingService {
	return &OnboardingService{taxonomy: taxonomy, profiles: profiles}
}

func (s *OnboardingService) CreateCategories(ctx context.Context, userID string, in []core.CategoryInput) ([]core.Category, error) {
	return s.taxonomy.CreateCategories(ctx, userID, in)
}

func (s *OnboardingService) CreateAccounts(ctx context.Context, userID string, in []core.AccountInput) ([]core.Account, error) {
	return s.taxonomy.CreateAccounts(ctx, userID, in)
}

func (s *OnboardingService) CreateOwners(ctx context.Context, userID string, in []core.OwnerInput) ([]core.Owner, error) {
	return s.taxonomy.CreateOwners(ctx, userID, in)
}

func (s *OnboardingService) CompleteOnboarding(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if err := s.profiles.SetOnboardingCompleted(ctx, userID, true); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	return nil
}
