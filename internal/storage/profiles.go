package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendly/internal/core"
)

const profileColumns = `id, full_name, onboarding_completed, credits_usd, created_at`

func (s *Store) EnsureProfile(ctx context.Context, userID string) (core.Profile, error) {
	p, err := s.getProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return p, err
	}

	insert := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, s.rebind(insert), userID, nil, false, 0.0, s.now()); err != nil {
		return p, fmt.Errorf("create profile: %w", err)
	}
	return s.getProfile(ctx, userID)
}

func (s *Store) getProfile(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`
	if err := s.db.GetContext(ctx, &p, s.rebind(q), userID); err != nil {
		return p, fmt.Errorf("get profile: %w", translate(err))
	}
	return p, nil
}

func (s *Store) UpdateProfileName(ctx context.Context, userID string, fullName *string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE profiles SET full_name = ? WHERE id = ?`), fullName, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res)
}

func (s *Store) SetOnboardingCompleted(ctx context.Context, userID string, completed bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE profiles SET onboarding_completed = ? WHERE id = ?`), completed, userID)
	if err != nil {
		return fmt.Errorf("update onboarding status: %w", err)
	}
	return expectOne(res)
}

// AI usage

const usageColumns = `id, user_id, request_type, model, prompt_tokens, completion_tokens, audio_seconds, estimated_cost_usd, created_at`

func (s *Store) RecordUsage(ctx context.Context, l core.UsageLog) error {
	s.fillNew(&l.ID, &l.CreatedAt)
	q := `INSERT INTO ai_usage_logs (` + usageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.rebind(q),
		l.ID, l.UserID, l.RequestType, l.Model, l.PromptTokens, l.CompletionTokens,
		l.AudioSeconds, l.EstimatedCostUSD, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// ListUsageSince returns the user's most recent usage logs newer than since.
func (s *Store) ListUsageSince(ctx context.Context, userID string, since time.Time, limit int) ([]core.UsageLog, error) {
	q := `SELECT ` + usageColumns + ` FROM ai_usage_logs
WHERE user_id = ? AND created_at >= ?
ORDER BY created_at DESC
LIMIT ?`
	logs := []core.UsageLog{}
	if err := s.db.SelectContext(ctx, &logs, s.rebind(q), userID, since.UTC(), limit); err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	return logs, nil
}
