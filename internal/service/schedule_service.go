package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
	"github.com/shopspring/decimal"
)

// calendarOccurrencesPerSchedule caps how many future runs one schedule contributes to the feed.
const calendarOccurrencesPerSchedule = 24

const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Dividend Admin//Schedules//EN\r\n" +
	"X-WR-CALNAME:Dividend schedule\r\nEND:VCALENDAR\r\n"

// ScheduleService handles recurring dividend schedule business logic operations.
type ScheduleService struct {
	scheduleRepo *repository.ScheduleRepository
	companyRepo  *repository.CompanyRepository
}

// NewScheduleService creates a new ScheduleService with the provided repository dependencies.
func NewScheduleService(
	scheduleRepo *repository.ScheduleRepository,
	companyRepo *repository.CompanyRepository,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		companyRepo:  companyRepo,
	}
}

// Create validates and stores a new schedule for userID.
// next_run_at is computed by the database's calculate_next_run_date function;
// a first run after the end date leaves the schedule without a next run.
func (s *ScheduleService) Create(ctx context.Context, userID string, req request.CreateScheduleRequest) (*model.RecurringDividend, error) {
	if err := validation.ValidateCreateSchedule(req); err != nil {
		return nil, err
	}

	if _, err := s.companyRepo.GetCompany(ctx, userID, req.CompanyID); err != nil {
		return nil, err
	}
	holder, err := s.companyRepo.GetShareholder(ctx, userID, req.ShareholderID)
	if err != nil {
		return nil, err
	}
	if holder.CompanyID != req.CompanyID {
		return nil, &validation.Error{Fields: map[string]string{"shareholderId": "shareholder does not belong to company"}}
	}

	shares := req.ShareCount
	if shares == 0 {
		if shares, err = s.companyRepo.GetShareholding(ctx, req.CompanyID, req.ShareholderID, req.ShareClass); err != nil {
			return nil, err
		}
		if shares == 0 {
			return nil, &validation.Error{Fields: map[string]string{"shareCount": "shareholder holds no " + req.ShareClass + " shares"}}
		}
	}

	start, _ := parseDate(req.StartDate)
	end, _ := parseOptionalDate(req.EndDate)
	template := templateOrDefault(req.Template)

	now := time.Now().UTC()
	schedule := &model.RecurringDividend{
		ID:                  uuid.New().String(),
		UserID:              userID,
		CompanyID:           req.CompanyID,
		ShareholderID:       req.ShareholderID,
		AmountPerShare:      req.AmountPerShare,
		ShareClass:          req.ShareClass,
		ShareCount:          shares,
		Frequency:           recurrence.Frequency(req.Frequency),
		DayOfMonth:          req.DayOfMonth,
		StartDate:           start,
		EndDate:             end,
		IsActive:            true,
		EmailRecipients:     normaliseRecipients(req.EmailRecipients),
		IncludeBoardMinutes: req.IncludeBoardMinutes,
		Template:            template,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	schedule.TotalAmount = totalAmount(schedule)

	if err := s.setNextRun(ctx, schedule, now); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.InsertSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

// Update applies a partial update. next_run_at is recomputed, anchored on the
// schedule's own last run, only when frequency or day of month changes, or
// when a new end date revives an ended schedule.
func (s *ScheduleService) Update(ctx context.Context, userID, id string, req request.UpdateScheduleRequest) (*model.RecurringDividend, error) {
	if err := validation.ValidateUpdateSchedule(req); err != nil {
		return nil, err
	}

	schedule, err := s.scheduleRepo.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recompute := false
	if req.Frequency != nil && recurrence.Frequency(*req.Frequency) != schedule.Frequency {
		schedule.Frequency = recurrence.Frequency(*req.Frequency)
		recompute = true
	}
	if req.DayOfMonth != nil && *req.DayOfMonth != schedule.DayOfMonth {
		schedule.DayOfMonth = *req.DayOfMonth
		recompute = true
	}
	if req.EndDate != nil {
		end, _ := parseOptionalDate(*req.EndDate)
		if end != nil && end.Before(schedule.StartDate) {
			return nil, &validation.Error{Fields: map[string]string{"endDate": "endDate must not be before startDate"}}
		}
		schedule.EndDate = end
		if schedule.NextRunAt == nil {
			recompute = true
		}
	}
	if req.AmountPerShare != nil {
		schedule.AmountPerShare = *req.AmountPerShare
	}
	if req.ShareCount != nil {
		schedule.ShareCount = *req.ShareCount
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	if req.EmailRecipients != nil {
		schedule.EmailRecipients = normaliseRecipients(req.EmailRecipients)
	}
	if req.IncludeBoardMinutes != nil {
		schedule.IncludeBoardMinutes = *req.IncludeBoardMinutes
	}
	if req.Template != nil && *req.Template != "" {
		schedule.Template = *req.Template
	}
	schedule.TotalAmount = totalAmount(&schedule)

	now := time.Now().UTC()
	if recompute {
		if err := s.setNextRun(ctx, &schedule, now); err != nil {
			return nil, err
		}
	} else if schedule.NextRunAt != nil && schedule.Ended(*schedule.NextRunAt) {
		schedule.NextRunAt = nil
	}
	schedule.UpdatedAt = now

	if err := s.scheduleRepo.UpdateSchedule(ctx, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// TogglePause sets is_paused. The next run date is not changed; the runner
// skips paused schedules and records missed dates when they resume.
func (s *ScheduleService) TogglePause(ctx context.Context, userID, id string, paused bool) (*model.RecurringDividend, error) {
	if err := s.scheduleRepo.SetPaused(ctx, userID, id, paused, time.Now().UTC()); err != nil {
		return nil, err
	}
	schedule, err := s.scheduleRepo.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Delete removes a schedule. Its run history is retained.
func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	return s.scheduleRepo.DeleteSchedule(ctx, userID, id)
}

// Get retrieves one schedule owned by userID.
func (s *ScheduleService) Get(ctx context.Context, userID, id string) (*model.RecurringDividend, error) {
	schedule, err := s.scheduleRepo.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List retrieves the schedules of userID, optionally for one company.
func (s *ScheduleService) List(ctx context.Context, userID, companyID string) ([]model.RecurringDividend, error) {
	schedules, err := s.scheduleRepo.ListSchedules(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSchedules, err)
	}
	return schedules, nil
}

// Calendar renders upcoming runs of the active, unpaused schedules of userID
// as an iCalendar feed, covering from today until horizon.
func (s *ScheduleService) Calendar(ctx context.Context, userID string, today, horizon time.Time) ([]byte, error) {
	schedules, err := s.scheduleRepo.ListActiveSchedules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSchedules, err)
	}

	companies := map[string]string{}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Dividend Admin//Schedules//EN")
	cal.Props.SetText("X-WR-CALNAME", "Dividend schedule")

	stamp := time.Now().UTC()
	for _, schedule := range schedules {
		until := horizon
		if schedule.EndDate != nil && schedule.EndDate.Before(until) {
			until = *schedule.EndDate
		}
		dates, err := recurrence.Occurrences(schedule.Frequency, schedule.DayOfMonth, schedule.StartDate,
			schedule.LastRunAt, today, until, calendarOccurrencesPerSchedule)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", schedule.ID, err)
		}

		name, ok := companies[schedule.CompanyID]
		if !ok {
			if company, err := s.companyRepo.GetCompany(ctx, userID, schedule.CompanyID); err == nil {
				name = company.Name
			}
			companies[schedule.CompanyID] = name
		}

		for _, date := range dates {
			event := ical.NewEvent()
			event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s@dividend-admin", schedule.ID, date.Format("20060102")))
			event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
			event.Props.SetDate(ical.PropDateTimeStart, date)
			event.Props.SetDate(ical.PropDateTimeEnd, date.AddDate(0, 0, 1))
			event.Props.SetText(ical.PropSummary, strings.TrimSpace(fmt.Sprintf("%s dividend %s", name, document.FormatGBP(schedule.TotalAmount))))
			event.Props.SetText(ical.PropDescription, fmt.Sprintf("%d %s shares at %s per share",
				schedule.ShareCount, schedule.ShareClass, document.FormatGBP(schedule.AmountPerShare)))
			cal.Children = append(cal.Children, event.Component)
		}
	}

	if len(cal.Children) == 0 {
		// The encoder refuses a VCALENDAR without components.
		return []byte(emptyCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// setNextRun computes next_run_at from the schedule's own last run.
func (s *ScheduleService) setNextRun(ctx context.Context, schedule *model.RecurringDividend, now time.Time) error {
	next, err := s.scheduleRepo.CalculateNextRunDate(ctx, schedule.Frequency, schedule.DayOfMonth,
		schedule.StartDate, schedule.LastRunAt, recurrence.DateOnly(now))
	if err != nil {
		return err
	}
	if schedule.Ended(next) {
		schedule.NextRunAt = nil
		return nil
	}
	schedule.NextRunAt = &next
	return nil
}

func totalAmount(schedule *model.RecurringDividend) decimal.Decimal {
	return schedule.AmountPerShare.Mul(decimal.NewFromInt(schedule.ShareCount)).Round(2)
}

func normaliseRecipients(list []string) []string {
	out := make([]string, 0, len(list))
	seen := map[string]bool{}
	for _, r := range list {
		r = strings.TrimSpace(r)
		if key := strings.ToLower(r); r != "" && !seen[key] {
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}
