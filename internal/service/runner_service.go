package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	skipMissed       = "missed: a later occurrence was due when the schedule next ran"
	skipLimitReached = "monthly document limit reached for current plan"

	// maxCatchUp bounds the occurrences recorded for one long-stale schedule.
	maxCatchUp = 240
)

// runRequestNamespace derives deterministic generation request ids from run ids,
// so a retried run replays its documents instead of generating new ones.
var runRequestNamespace = uuid.MustParse("5c1f7e7a-2f55-4d1b-9a43-3f3d0b6f91d2")

// RunnerService executes due recurring dividend schedules.
type RunnerService struct {
	scheduleRepo *repository.ScheduleRepository
	runs         *RunService
	documents    *DocumentService
	delivery     *DeliveryService
	usage        *UsageService
	concurrency  int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewRunnerService creates a new RunnerService. concurrency bounds how many
// schedules execute at once; metrics may be nil.
func NewRunnerService(
	scheduleRepo *repository.ScheduleRepository,
	runs *RunService,
	documents *DocumentService,
	delivery *DeliveryService,
	usage *UsageService,
	concurrency int,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RunnerService {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunnerService{
		scheduleRepo: scheduleRepo,
		runs:         runs,
		documents:    documents,
		delivery:     delivery,
		usage:        usage,
		concurrency:  concurrency,
		metrics:      m,
		logger:       logger,
	}
}

// RunDue executes every active, unpaused schedule whose next run is on or
// before now. Each schedule runs independently: a failure is recorded on its
// run and never stops the others. After any terminal state the schedule
// advances to its first occurrence after now.
func (s *RunnerService) RunDue(ctx context.Context, now time.Time) (*model.RunDueSummary, error) {
	started := time.Now()
	today := recurrence.DateOnly(now)

	schedules, err := s.scheduleRepo.ListDueSchedules(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSchedules, err)
	}

	summary := &model.RunDueSummary{Due: len(schedules), RunIDs: []string{}}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, schedule := range schedules {
		schedule := schedule
		g.Go(func() error {
			runs := s.execute(ctx, schedule, today)

			mu.Lock()
			defer mu.Unlock()
			for _, run := range runs {
				summary.RunIDs = append(summary.RunIDs, run.ID)
				switch run.Status {
				case model.RunCompleted:
					summary.Completed++
				case model.RunFailed:
					summary.Failed++
				case model.RunSkipped:
					summary.Skipped++
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.RunDueDuration.Observe(time.Since(started).Seconds())
	}
	s.logger.InfoContext(ctx, "due run scan finished",
		"due", summary.Due, "completed", summary.Completed, "failed", summary.Failed, "skipped", summary.Skipped,
		"duration", time.Since(started))
	return summary, nil
}

// execute runs one schedule and returns the runs it recorded with their final status.
func (s *RunnerService) execute(ctx context.Context, schedule model.RecurringDividend, today time.Time) []model.ScheduledDividendRun {
	log := s.logger.With("schedule_id", schedule.ID, "user_id", schedule.UserID)

	// Re-read so a pause or edit made since the scan is honoured.
	current, err := s.scheduleRepo.GetScheduleByID(ctx, schedule.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to reload schedule", "error", err)
		return nil
	}
	if !current.Due(today) {
		log.DebugContext(ctx, "schedule no longer due")
		return nil
	}

	dates, err := dueDates(current, today)
	if err != nil {
		log.ErrorContext(ctx, "failed to compute due dates", "error", err)
		return nil
	}

	var recorded []model.ScheduledDividendRun
	for _, date := range dates[:len(dates)-1] {
		if run, ok := s.skip(ctx, current, date, skipMissed); ok {
			recorded = append(recorded, run)
		}
	}

	runDate := dates[len(dates)-1]
	run, err := s.runs.CreatePending(ctx, current, runDate)
	switch {
	case errors.Is(err, apperrors.ErrDuplicateRun):
		log.InfoContext(ctx, "run already recorded for date", "scheduled_for", runDate.Format("2006-01-02"))
	case err != nil:
		log.ErrorContext(ctx, "failed to create run", "error", err)
		return recorded
	default:
		run.Status = s.perform(ctx, current, run, log)
		recorded = append(recorded, *run)
		s.countRun(run.Status)
	}

	if err := s.advance(ctx, current, runDate, today); err != nil {
		log.ErrorContext(ctx, "failed to advance schedule", "error", err)
	}
	return recorded
}

// perform moves a pending run to a terminal status and returns that status.
func (s *RunnerService) perform(ctx context.Context, schedule model.RecurringDividend, run *model.ScheduledDividendRun, log *slog.Logger) model.RunStatus {
	log = log.With("run_id", run.ID)

	if ok, err := s.withinLimits(ctx, schedule); err != nil || !ok {
		reason := skipLimitReached
		if err != nil {
			reason = "usage check failed: " + err.Error()
		}
		if err := s.runs.MarkSkipped(ctx, run.ID, reason); err != nil {
			log.ErrorContext(ctx, "failed to mark run skipped", "error", err)
		}
		log.InfoContext(ctx, "run skipped", "reason", reason)
		return model.RunSkipped
	}

	if err := s.runs.MarkProcessing(ctx, run.ID); err != nil {
		log.ErrorContext(ctx, "failed to mark run processing", "error", err)
		return s.fail(ctx, run.ID, err, log)
	}

	outcome, err := s.generateAndDeliver(ctx, schedule, run)
	if errors.Is(err, apperrors.ErrUsageLimitExceeded) {
		if err := s.runs.MarkSkipped(ctx, run.ID, skipLimitReached); err != nil {
			log.ErrorContext(ctx, "failed to mark run skipped", "error", err)
		}
		return model.RunSkipped
	}
	if err != nil {
		return s.fail(ctx, run.ID, err, log)
	}

	if err := s.runs.MarkCompleted(ctx, run.ID, outcome); err != nil {
		log.ErrorContext(ctx, "failed to mark run completed", "error", err)
		return s.fail(ctx, run.ID, err, log)
	}
	log.InfoContext(ctx, "run completed", "dividend_record_id", outcome.DividendRecordID, "email_sent", outcome.EmailSent)
	return model.RunCompleted
}

func (s *RunnerService) generateAndDeliver(ctx context.Context, schedule model.RecurringDividend, run *model.ScheduledDividendRun) (model.RunOutcome, error) {
	var outcome model.RunOutcome
	paymentDate := run.ScheduledFor.Format("2006-01-02")

	record, err := s.documents.GenerateVoucher(ctx, schedule.UserID, request.GenerateDividendRequest{
		RequestID:      runRequestID(run.ID, model.KindDividend),
		CompanyID:      schedule.CompanyID,
		ShareholderID:  schedule.ShareholderID,
		ShareClass:     schedule.ShareClass,
		Shares:         schedule.ShareCount,
		AmountPerShare: schedule.AmountPerShare,
		PaymentDate:    paymentDate,
		Template:       schedule.Template,
		Format:         string(document.FormatPDF),
	})
	if err != nil {
		return outcome, fmt.Errorf("voucher: %w", err)
	}
	outcome.DividendRecordID = record.ID

	files := []StoredFile{}
	if len(schedule.EmailRecipients) > 0 {
		f, err := s.documents.DividendFile(ctx, schedule.UserID, record.ID)
		if err != nil {
			return outcome, fmt.Errorf("voucher download: %w", err)
		}
		files = append(files, *f)
	}

	if schedule.IncludeBoardMinutes {
		minutes, err := s.documents.GenerateMinutes(ctx, schedule.UserID, request.GenerateMinutesRequest{
			RequestID:   runRequestID(run.ID, model.KindMinutes),
			CompanyID:   schedule.CompanyID,
			MeetingDate: paymentDate,
			PaymentDate: paymentDate,
			Template:    schedule.Template,
			Format:      string(document.FormatPDF),
		})
		if err != nil {
			return outcome, fmt.Errorf("minutes: %w", err)
		}
		outcome.MinutesID = minutes.ID

		if len(schedule.EmailRecipients) > 0 {
			f, err := s.documents.MinutesFile(ctx, schedule.UserID, minutes.ID)
			if err != nil {
				return outcome, fmt.Errorf("minutes download: %w", err)
			}
			files = append(files, *f)
		}
	}

	if len(schedule.EmailRecipients) == 0 {
		return outcome, nil
	}
	_, err = s.delivery.Deliver(ctx, Delivery{
		UserID:     schedule.UserID,
		RunID:      run.ID,
		Recipients: schedule.EmailRecipients,
		Subject:    fmt.Sprintf("Dividend voucher %s", record.VoucherNumber),
		HTML: fmt.Sprintf("<p>A dividend of <strong>%s</strong> was paid on %s.</p><p>The voucher is attached.</p>",
			document.FormatGBP(record.TotalAmount), document.FormatLongDate(record.PaymentDate)),
		Files: files,
	})
	if err != nil {
		return outcome, err
	}
	outcome.EmailSent = true
	return outcome, nil
}

func (s *RunnerService) withinLimits(ctx context.Context, schedule model.RecurringDividend) (bool, error) {
	ok, err := s.usage.CheckUsageLimits(ctx, schedule.UserID, model.KindDividend)
	if err != nil || !ok {
		return ok, err
	}
	if schedule.IncludeBoardMinutes {
		return s.usage.CheckUsageLimits(ctx, schedule.UserID, model.KindMinutes)
	}
	return true, nil
}

func (s *RunnerService) fail(ctx context.Context, runID string, cause error, log *slog.Logger) model.RunStatus {
	if err := s.runs.MarkFailed(ctx, runID, cause); err != nil {
		log.ErrorContext(ctx, "failed to mark run failed", "error", err)
	}
	log.ErrorContext(ctx, "run failed", "error", cause)
	return model.RunFailed
}

// skip records a missed occurrence. A date that already has a run is left alone.
func (s *RunnerService) skip(ctx context.Context, schedule model.RecurringDividend, date time.Time, reason string) (model.ScheduledDividendRun, bool) {
	run, err := s.runs.CreatePending(ctx, schedule, date)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateRun) {
			s.logger.ErrorContext(ctx, "failed to record missed run", "schedule_id", schedule.ID, "error", err)
		}
		return model.ScheduledDividendRun{}, false
	}
	if err := s.runs.MarkSkipped(ctx, run.ID, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark missed run skipped", "run_id", run.ID, "error", err)
		return model.ScheduledDividendRun{}, false
	}
	run.Status = model.RunSkipped
	run.SkipReason = reason
	s.countRun(model.RunSkipped)
	return *run, true
}

// advance stores runDate as the last run and the first occurrence after today
// as the next one; past the end date the schedule has no next run.
func (s *RunnerService) advance(ctx context.Context, schedule model.RecurringDividend, runDate, today time.Time) error {
	next, err := s.scheduleRepo.CalculateNextRunDate(ctx, schedule.Frequency, schedule.DayOfMonth,
		schedule.StartDate, &runDate, today)
	if err != nil {
		return err
	}
	var nextRun *time.Time
	if !schedule.Ended(next) {
		nextRun = &next
	}
	return s.scheduleRepo.AdvanceSchedule(ctx, schedule.ID, runDate, nextRun, time.Now().UTC())
}

func (s *RunnerService) countRun(status model.RunStatus) {
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	}
}

// dueDates lists the schedule's occurrences from its stored next run up to
// today, oldest first, stopping at the end date. It always holds at least the
// stored next run.
func dueDates(schedule model.RecurringDividend, today time.Time) ([]time.Time, error) {
	first := recurrence.DateOnly(*schedule.NextRunAt)
	dates := []time.Time{first}
	for {
		last := dates[len(dates)-1]
		next, err := recurrence.Next(schedule.Frequency, schedule.DayOfMonth, schedule.StartDate, &last, today)
		if err != nil {
			return nil, err
		}
		if next.After(today) || schedule.Ended(next) || len(dates) == maxCatchUp {
			return dates, nil
		}
		dates = append(dates, next)
	}
}

func runRequestID(runID string, kind model.DocumentKind) string {
	return uuid.NewSHA1(runRequestNamespace, []byte(runID+":"+string(kind))).String()
}
