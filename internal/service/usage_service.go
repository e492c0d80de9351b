package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
)

// UsageService enforces the monthly document quotas of each plan.
type UsageService struct {
	profileRepo *repository.ProfileRepository
	plans       *config.PlanTable
}

// NewUsageService creates a new UsageService with the provided repository dependencies.
func NewUsageService(
	profileRepo *repository.ProfileRepository,
	plans *config.PlanTable,
) *UsageService {
	return &UsageService{
		profileRepo: profileRepo,
		plans:       plans,
	}
}

// EnsureProfile creates a profile on the default plan for a first-time user.
func (s *UsageService) EnsureProfile(ctx context.Context, userID, email string) error {
	return s.profileRepo.EnsureProfile(ctx, userID, email, s.plans.Default, time.Now().UTC())
}

// CheckUsageLimits reports whether userID may generate one more document of kind
// this month. A plan limit of 0 is unlimited regardless of the counter.
// Users without a profile are on the default plan with nothing used.
func (s *UsageService) CheckUsageLimits(ctx context.Context, userID string, kind model.DocumentKind) (bool, error) {
	quota, err := s.quota(ctx, userID, kind, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return quota.Unlimited || quota.Used < quota.Limit, nil
}

// RequireQuota returns apperrors.ErrUsageLimitExceeded when the quota for kind is used up.
func (s *UsageService) RequireQuota(ctx context.Context, userID string, kind model.DocumentKind) error {
	ok, err := s.CheckUsageLimits(ctx, userID, kind)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUsageLimitExceeded, kind)
	}
	return nil
}

// Increment counts one generated document of kind inside tx, so the counter
// commits together with the document record.
func (s *UsageService) Increment(ctx context.Context, tx *sql.Tx, userID string, kind model.DocumentKind) error {
	now := time.Now().UTC()
	repo := s.profileRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	err := repo.IncrementUsage(ctx, userID, kind, usagePeriod(now), now)
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		// Documents generated by the runner for a user who never signed in.
		if err := repo.EnsureProfile(ctx, userID, "", s.plans.Default, now); err != nil {
			return err
		}
		return repo.IncrementUsage(ctx, userID, kind, usagePeriod(now), now)
	}
	return err
}

// Summary returns the plan and both quotas for userID.
func (s *UsageService) Summary(ctx context.Context, userID string) (*model.UsageSummary, error) {
	now := time.Now().UTC()
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveUsage, err)
	}

	dividends, _ := s.quota(ctx, userID, model.KindDividend, now)
	minutes, _ := s.quota(ctx, userID, model.KindMinutes, now)
	return &model.UsageSummary{
		Plan:      profile.Plan,
		Period:    usagePeriod(now),
		Dividends: dividends,
		Minutes:   minutes,
	}, nil
}

// ResetMonthly zeroes the counters of every profile still on an older period.
func (s *UsageService) ResetMonthly(ctx context.Context, now time.Time) (int64, error) {
	return s.profileRepo.ResetUsage(ctx, usagePeriod(now), now)
}

func (s *UsageService) profile(ctx context.Context, userID string) (model.Profile, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		return model.Profile{ID: userID, Plan: s.plans.Default}, nil
	}
	return profile, err
}

func (s *UsageService) quota(ctx context.Context, userID string, kind model.DocumentKind, now time.Time) (model.UsageQuota, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return model.UsageQuota{}, err
	}

	limits := s.plans.Lookup(profile.Plan)
	limit := limits.Dividends
	if kind == model.KindMinutes {
		limit = limits.Minutes
	}

	q := model.UsageQuota{
		Used:      profile.UsedThisMonth(kind, usagePeriod(now)),
		Limit:     limit,
		Unlimited: limit == 0,
	}
	if !q.Unlimited {
		q.Remaining = max(0, limit-q.Used)
	}
	return q, nil
}
