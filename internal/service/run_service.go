package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
)

// RunService records the lifecycle of scheduled dividend runs.
// Status only moves forward; the repository rejects any other transition
// with apperrors.ErrInvalidRunTransition.
type RunService struct {
	runRepo      *repository.RunRepository
	scheduleRepo *repository.ScheduleRepository
}

// NewRunService creates a new RunService with the provided repository dependencies.
func NewRunService(
	runRepo *repository.RunRepository,
	scheduleRepo *repository.ScheduleRepository,
) *RunService {
	return &RunService{
		runRepo:      runRepo,
		scheduleRepo: scheduleRepo,
	}
}

// CreatePending records a pending run of schedule for the given date.
// Returns apperrors.ErrDuplicateRun when that date already has a run.
func (s *RunService) CreatePending(ctx context.Context, schedule model.RecurringDividend, scheduledFor time.Time) (*model.ScheduledDividendRun, error) {
	run := &model.ScheduledDividendRun{
		ID:           uuid.New().String(),
		ScheduleID:   schedule.ID,
		UserID:       schedule.UserID,
		CompanyID:    schedule.CompanyID,
		Status:       model.RunPending,
		ScheduledFor: scheduledFor,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.runRepo.InsertRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// MarkProcessing moves a pending run to processing.
func (s *RunService) MarkProcessing(ctx context.Context, id string) error {
	return s.runRepo.MarkProcessing(ctx, id, time.Now().UTC())
}

// MarkCompleted records the generated documents of a run.
func (s *RunService) MarkCompleted(ctx context.Context, id string, outcome model.RunOutcome) error {
	return s.runRepo.MarkCompleted(ctx, id, outcome, time.Now().UTC())
}

// MarkFailed records why a run failed.
func (s *RunService) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return s.runRepo.MarkFailed(ctx, id, msg, time.Now().UTC())
}

// MarkSkipped records why a run was not executed.
func (s *RunService) MarkSkipped(ctx context.Context, id, reason string) error {
	return s.runRepo.MarkSkipped(ctx, id, reason)
}

// Get retrieves a run owned by userID.
func (s *RunService) Get(ctx context.Context, userID, id string) (*model.ScheduledDividendRun, error) {
	run, err := s.runRepo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		return nil, apperrors.ErrRunNotFound
	}
	return &run, nil
}

// Runs returns the run history of a schedule, newest first, narrowed by filters.
func (s *RunService) Runs(ctx context.Context, userID, scheduleID string, filters *model.RunFilters) ([]model.ScheduledDividendRun, error) {
	if _, err := s.scheduleRepo.GetSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}

	runs, err := s.runRepo.ListRuns(ctx, userID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRuns, err)
	}
	if filters == nil {
		return runs, nil
	}

	out := make([]model.ScheduledDividendRun, 0, len(runs))
	for _, run := range runs {
		if !filters.Match(run) {
			continue
		}
		out = append(out, run)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}
