package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/tax"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	dividendFolder = "dividends"
	minutesFolder  = "minutes"
)

// StoredFile is a downloaded document with the metadata needed to serve it.
type StoredFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentService generates, stores and records dividend vouchers and board minutes.
//
// Generation is idempotent per user by the client supplied request id: the
// object key is derived from it, and the record, the request id and the usage
// increment commit in one transaction. Replaying a request id returns the original record
// without rendering, uploading or counting anything.
type DocumentService struct {
	db            *sql.DB
	dividendRepo  *repository.DividendRecordRepository
	minutesRepo   *repository.MinutesRepository
	companyRepo   *repository.CompanyRepository
	requestRepo   *repository.GenerationRequestRepository
	usage         *UsageService
	generator     *document.Generator
	store         storage.Store
	metrics       *metrics.Metrics
	verifyBaseURL string
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService with the provided dependencies.
// metrics may be nil.
func NewDocumentService(
	db *sql.DB,
	dividendRepo *repository.DividendRecordRepository,
	minutesRepo *repository.MinutesRepository,
	companyRepo *repository.CompanyRepository,
	requestRepo *repository.GenerationRequestRepository,
	usage *UsageService,
	generator *document.Generator,
	store storage.Store,
	m *metrics.Metrics,
	verifyBaseURL string,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		db:            db,
		dividendRepo:  dividendRepo,
		minutesRepo:   minutesRepo,
		companyRepo:   companyRepo,
		requestRepo:   requestRepo,
		usage:         usage,
		generator:     generator,
		store:         store,
		metrics:       m,
		verifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
		logger:        logger,
	}
}

// GenerateVoucher renders and stores a dividend voucher.
// Returns apperrors.ErrUsageLimitExceeded when the monthly dividend quota is used up.
func (s *DocumentService) GenerateVoucher(ctx context.Context, userID string, req request.GenerateDividendRequest) (*model.DividendRecord, error) {
	if err := validation.ValidateGenerateDividend(req); err != nil {
		return nil, err
	}

	if existing, err := s.replayedDividend(ctx, userID, req.RequestID); err != nil || existing != nil {
		return existing, err
	}

	if err := s.requireQuota(ctx, userID, model.KindDividend); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetCompany(ctx, userID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	holder, err := s.companyRepo.GetShareholder(ctx, userID, req.ShareholderID)
	if err != nil {
		return nil, err
	}
	if holder.CompanyID != company.ID {
		return nil, &validation.Error{Fields: map[string]string{"shareholderId": "shareholder does not belong to company"}}
	}

	shares := req.Shares
	if shares == 0 {
		if shares, err = s.companyRepo.GetShareholding(ctx, company.ID, holder.ID, req.ShareClass); err != nil {
			return nil, err
		}
		if shares == 0 {
			return nil, &validation.Error{Fields: map[string]string{"shares": "shareholder holds no " + req.ShareClass + " shares"}}
		}
	}

	paymentDate, _ := parseDate(req.PaymentDate)
	declared, _ := parseOptionalDate(req.DeclarationDate)
	format, _ := document.ParseFormat(req.Format)
	template := templateOrDefault(req.Template)

	now := time.Now().UTC()
	record := &model.DividendRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		CompanyID:      company.ID,
		ShareholderID:  holder.ID,
		ShareClass:     req.ShareClass,
		Shares:         shares,
		AmountPerShare: req.AmountPerShare,
		TotalAmount:    req.AmountPerShare.Mul(decimal.NewFromInt(shares)).Round(2),
		PaymentDate:    paymentDate,
		TaxYear:        tax.TaxYearFor(paymentDate),
		Template:       template,
		Format:         string(format),
		FilePath:       storage.DocumentKey(userID, dividendFolder, req.RequestID, format.Extension()),
		CreatedAt:      now,
	}

	data := document.VoucherData{
		Company:        companyParty(company),
		Shareholder:    document.Party{Name: holder.Name, Address: holder.Address},
		ShareClass:     record.ShareClass,
		Shares:         record.Shares,
		AmountPerShare: record.AmountPerShare,
		TotalAmount:    record.TotalAmount,
		PaymentDate:    record.PaymentDate,
		TaxYear:        record.TaxYear,
		Signatory:      firstOf(company.Directors()),
		LogoURL:        company.LogoURL,
		VerifyURL:      verifyURL(s.verifyBaseURL, record.ID),
	}
	if declared != nil {
		data.DeclarationDate = *declared
	}

	// The number is printed on the voucher, so it is allocated, rendered and
	// recorded in one transaction.
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		dividends := s.dividendRepo.WithTx(tx)
		number, err := dividends.NextVoucherNumber(ctx, company.ID, paymentDate)
		if err != nil {
			return err
		}
		record.VoucherNumber = number
		data.VoucherNumber = number

		content, err := s.generator.Voucher(ctx, data, template, format)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToGenerateDocument, err)
		}
		if err := s.store.Upload(ctx, record.FilePath, format.ContentType(), content); err != nil {
			return fmt.Errorf("failed to store voucher: %w", err)
		}

		if err := dividends.InsertDividendRecord(ctx, record); err != nil {
			return err
		}
		if err := s.recordRequest(ctx, tx, userID, req.RequestID, model.KindDividend, record.ID, record.FilePath, now); err != nil {
			return err
		}
		return s.usage.Increment(ctx, tx, userID, model.KindDividend)
	})
	if errors.Is(err, repository.ErrDuplicateRequest) {
		existing, err := s.replayedDividend(ctx, userID, req.RequestID)
		return requireReplay(existing, err, req.RequestID)
	}
	if err != nil {
		return nil, err
	}

	s.countDocument(model.KindDividend, format)
	s.logger.InfoContext(ctx, "generated dividend voucher",
		"user_id", userID, "record_id", record.ID, "voucher_number", record.VoucherNumber)
	return record, nil
}

// GenerateMinutes renders and stores board minutes.
// Without explicit resolutions, a dividend declaration resolution for the
// payment date is recorded. Chair and attendees default to the company's directors.
func (s *DocumentService) GenerateMinutes(ctx context.Context, userID string, req request.GenerateMinutesRequest) (*model.Minutes, error) {
	if err := validation.ValidateGenerateMinutes(req); err != nil {
		return nil, err
	}

	if existing, err := s.replayedMinutes(ctx, userID, req.RequestID); err != nil || existing != nil {
		return existing, err
	}

	if err := s.requireQuota(ctx, userID, model.KindMinutes); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetCompany(ctx, userID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	meetingDate, _ := parseDate(req.MeetingDate)
	paymentDate, _ := parseOptionalDate(req.PaymentDate)
	format, _ := document.ParseFormat(req.Format)
	template := templateOrDefault(req.Template)

	directors := company.Directors()
	chair := req.Chair
	if chair == "" {
		chair = firstOf(directors)
	}
	attendees := req.Attendees
	if len(attendees) == 0 {
		attendees = directors
	}

	resolutions := make([]model.Resolution, 0, len(req.Resolutions)+1)
	for _, r := range req.Resolutions {
		resolutions = append(resolutions, model.Resolution{Title: r.Title, Text: r.Text})
	}
	if len(resolutions) == 0 && paymentDate != nil {
		resolutions = append(resolutions, dividendResolution(company.Name, *paymentDate))
	}

	now := time.Now().UTC()
	minutes := &model.Minutes{
		ID:          uuid.New().String(),
		UserID:      userID,
		CompanyID:   company.ID,
		MeetingDate: meetingDate,
		Title:       req.Title,
		Chair:       chair,
		Attendees:   append([]string{}, attendees...),
		Resolutions: resolutions,
		PaymentDate: paymentDate,
		Template:    template,
		Format:      string(format),
		FilePath:    storage.DocumentKey(userID, minutesFolder, req.RequestID, format.Extension()),
		CreatedAt:   now,
	}

	content, err := s.generator.Minutes(ctx, minutesData(company, *minutes, req.Location), template, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToGenerateDocument, err)
	}
	if err := s.store.Upload(ctx, minutes.FilePath, format.ContentType(), content); err != nil {
		return nil, fmt.Errorf("failed to store minutes: %w", err)
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.minutesRepo.WithTx(tx).InsertMinutes(ctx, minutes); err != nil {
			return err
		}
		if err := s.recordRequest(ctx, tx, userID, req.RequestID, model.KindMinutes, minutes.ID, minutes.FilePath, now); err != nil {
			return err
		}
		return s.usage.Increment(ctx, tx, userID, model.KindMinutes)
	})
	if errors.Is(err, repository.ErrDuplicateRequest) {
		existing, err := s.replayedMinutes(ctx, userID, req.RequestID)
		return requireReplay(existing, err, req.RequestID)
	}
	if err != nil {
		return nil, err
	}

	s.countDocument(model.KindMinutes, format)
	s.logger.InfoContext(ctx, "generated board minutes", "user_id", userID, "minutes_id", minutes.ID)
	return minutes, nil
}

// GetDividend retrieves a voucher record with display names.
func (s *DocumentService) GetDividend(ctx context.Context, userID, id string) (*model.DividendRecordDetail, error) {
	detail, err := s.dividendRepo.GetDividendRecord(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListDividends lists a user's voucher records, optionally for one company.
func (s *DocumentService) ListDividends(ctx context.Context, userID, companyID string) ([]model.DividendRecordDetail, error) {
	records, err := s.dividendRepo.ListDividendRecords(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveDividends, err)
	}
	return records, nil
}

// DeleteDividend removes a voucher record and its stored file.
// The monthly counter is not decremented.
func (s *DocumentService) DeleteDividend(ctx context.Context, userID, id string) error {
	detail, err := s.dividendRepo.GetDividendRecord(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.dividendRepo.DeleteDividendRecord(ctx, userID, id); err != nil {
		return err
	}
	s.removeFile(ctx, detail.FilePath)
	return nil
}

// GetMinutes retrieves a minutes record.
func (s *DocumentService) GetMinutes(ctx context.Context, userID, id string) (*model.Minutes, error) {
	m, err := s.minutesRepo.GetMinutes(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMinutes lists a user's minutes, optionally for one company.
func (s *DocumentService) ListMinutes(ctx context.Context, userID, companyID string) ([]model.Minutes, error) {
	list, err := s.minutesRepo.ListMinutes(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveMinutes, err)
	}
	return list, nil
}

// DeleteMinutes removes a minutes record and its stored file.
func (s *DocumentService) DeleteMinutes(ctx context.Context, userID, id string) error {
	m, err := s.minutesRepo.GetMinutes(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.minutesRepo.DeleteMinutes(ctx, userID, id); err != nil {
		return err
	}
	s.removeFile(ctx, m.FilePath)
	return nil
}

// DividendFile downloads the stored voucher of a record.
func (s *DocumentService) DividendFile(ctx context.Context, userID, id string) (*StoredFile, error) {
	detail, err := s.dividendRepo.GetDividendRecord(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.file(ctx, detail.FilePath, detail.VoucherNumber, detail.Format)
}

// MinutesFile downloads the stored document of a minutes record.
func (s *DocumentService) MinutesFile(ctx context.Context, userID, id string) (*StoredFile, error) {
	m, err := s.minutesRepo.GetMinutes(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.file(ctx, m.FilePath, "minutes-"+m.MeetingDate.Format("2006-01-02"), m.Format)
}

// Verify returns the public details of a voucher for QR code verification.
func (s *DocumentService) Verify(ctx context.Context, id string) (*model.VoucherVerification, error) {
	v, err := s.dividendRepo.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *DocumentService) file(ctx context.Context, key, name, format string) (*StoredFile, error) {
	data, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	f := document.Format(format)
	return &StoredFile{Filename: name + f.Extension(), ContentType: f.ContentType(), Data: data}, nil
}

func (s *DocumentService) removeFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored document", "key", key, "error", err)
	}
}

func (s *DocumentService) replayedDividend(ctx context.Context, userID, requestID string) (*model.DividendRecord, error) {
	prior, err := s.requestRepo.GetRequest(ctx, userID, requestID)
	if errors.Is(err, repository.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.Kind != model.KindDividend {
		return nil, &validation.Error{Fields: map[string]string{"requestId": "requestId was already used for another document"}}
	}
	detail, err := s.dividendRepo.GetDividendRecord(ctx, userID, prior.RecordID)
	if err != nil {
		return nil, err
	}
	return &detail.DividendRecord, nil
}

func (s *DocumentService) replayedMinutes(ctx context.Context, userID, requestID string) (*model.Minutes, error) {
	prior, err := s.requestRepo.GetRequest(ctx, userID, requestID)
	if errors.Is(err, repository.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.Kind != model.KindMinutes {
		return nil, &validation.Error{Fields: map[string]string{"requestId": "requestId was already used for another document"}}
	}
	m, err := s.minutesRepo.GetMinutes(ctx, userID, prior.RecordID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// requireReplay turns a missing replay into a conflict. It is used after the
// request id was rejected as a duplicate, where a nil record must not be
// reported as success.
func requireReplay[T any](existing *T, err error, requestID string) (*T, error) {
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRequestConflict, requestID)
	}
	return existing, nil
}

func (s *DocumentService) recordRequest(ctx context.Context, tx *sql.Tx, userID, requestID string, kind model.DocumentKind, recordID, path string, now time.Time) error {
	return s.requestRepo.WithTx(tx).InsertRequest(ctx, &model.GenerationRequest{
		RequestID: requestID,
		UserID:    userID,
		Kind:      kind,
		RecordID:  recordID,
		FilePath:  path,
		CreatedAt: now,
	})
}

func (s *DocumentService) requireQuota(ctx context.Context, userID string, kind model.DocumentKind) error {
	err := s.usage.RequireQuota(ctx, userID, kind)
	if errors.Is(err, apperrors.ErrUsageLimitExceeded) && s.metrics != nil {
		s.metrics.LimitRejections.WithLabelValues(string(kind)).Inc()
	}
	return err
}

func (s *DocumentService) countDocument(kind model.DocumentKind, format document.Format) {
	if s.metrics != nil {
		s.metrics.DocumentsTotal.WithLabelValues(string(kind), string(format)).Inc()
	}
}

func dividendResolution(companyName string, paymentDate time.Time) model.Resolution {
	return model.Resolution{
		Title: "Interim dividend",
		Text: fmt.Sprintf("The directors reviewed the management accounts and confirmed that %s has sufficient "+
			"distributable reserves. IT WAS RESOLVED that an interim dividend be declared on the ordinary shares, "+
			"payable on %s to shareholders on the register at that date, and that dividend vouchers be issued.",
			companyName, document.FormatLongDate(paymentDate)),
	}
}

func minutesData(company model.Company, m model.Minutes, location string) document.MinutesData {
	resolutions := make([]document.Resolution, 0, len(m.Resolutions))
	for _, r := range m.Resolutions {
		resolutions = append(resolutions, document.Resolution{Title: r.Title, Text: r.Text})
	}
	return document.MinutesData{
		Company:     companyParty(company),
		Title:       m.Title,
		MeetingDate: m.MeetingDate,
		Location:    location,
		Chair:       m.Chair,
		Attendees:   m.Attendees,
		Resolutions: resolutions,
		LogoURL:     company.LogoURL,
	}
}

func companyParty(c model.Company) document.Party {
	return document.Party{Name: c.Name, Number: c.RegistrationNumber, Address: c.RegisteredAddress}
}

func templateOrDefault(id string) string {
	if id == "" {
		return document.DefaultTemplate
	}
	return strings.ToLower(id)
}

func firstOf(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
