package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
)

const boardPackFolder = "board-packs"

// BoardPackResult describes a stored board pack.
type BoardPackResult struct {
	ID            string             `json:"id"`
	Sections      []document.Section `json:"sections"`
	DownloadToken string             `json:"downloadToken"`
	ExpiresAt     time.Time          `json:"expiresAt"`
}

// BoardPackService assembles board minutes, an optional cap table and a set of
// vouchers into one PDF.
type BoardPackService struct {
	dividendRepo  *repository.DividendRecordRepository
	minutesRepo   *repository.MinutesRepository
	companyRepo   *repository.CompanyRepository
	generator     *document.Generator
	store         storage.Store
	downloads     *DownloadService
	verifyBaseURL string
	logger        *slog.Logger
}

// NewBoardPackService creates a new BoardPackService with the provided dependencies.
func NewBoardPackService(
	dividendRepo *repository.DividendRecordRepository,
	minutesRepo *repository.MinutesRepository,
	companyRepo *repository.CompanyRepository,
	generator *document.Generator,
	store storage.Store,
	downloads *DownloadService,
	verifyBaseURL string,
	logger *slog.Logger,
) *BoardPackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardPackService{
		dividendRepo:  dividendRepo,
		minutesRepo:   minutesRepo,
		companyRepo:   companyRepo,
		generator:     generator,
		store:         store,
		downloads:     downloads,
		verifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
		logger:        logger,
	}
}

// Stages returns the progress labels Build reports for req.
func (s *BoardPackService) Stages(req request.BoardPackRequest) []string {
	return document.BoardPackStages(req.IncludeCapTable)
}

// Build assembles, stores and signs a board pack. progress receives every
// stage in order and may be nil. Every selected voucher must belong to the
// company and share the pack's payment date; a failure at any stage stores nothing.
func (s *BoardPackService) Build(ctx context.Context, userID string, req request.BoardPackRequest, progress document.ProgressFunc) (*BoardPackResult, error) {
	if len(req.DividendRecordIDs) == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	if err := validation.ValidateBoardPack(req); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetCompany(ctx, userID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	yearEnd, _ := parseDate(req.YearEnd)
	paymentDate, _ := parseDate(req.PaymentDate)

	records, err := s.dividendRepo.GetDividendRecords(ctx, userID, req.DividendRecordIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.CompanyID != company.ID {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDividendRecordNotFound, r.ID)
		}
		if !r.PaymentDate.Equal(paymentDate) {
			return nil, fmt.Errorf("%w: voucher %s is dated %s", apperrors.ErrMixedPaymentDates,
				r.VoucherNumber, r.PaymentDate.Format("2006-01-02"))
		}
	}

	minutes, err := s.minutesRepo.GetMinutes(ctx, userID, req.MinutesID)
	if err != nil {
		return nil, err
	}
	if minutes.CompanyID != company.ID {
		return nil, apperrors.ErrMinutesNotFound
	}

	in := document.BoardPackInput{
		Company:     companyParty(company),
		YearEnd:     yearEnd,
		PaymentDate: paymentDate,
		Minutes:     minutesData(company, minutes, ""),
		Vouchers:    make([]document.VoucherData, 0, len(records)),
		TemplateID:  templateOrDefault(req.Template),
		LogoURL:     company.LogoURL,
		PreparedBy:  req.PreparedBy,
	}
	signatory := firstOf(company.Directors())
	for _, r := range records {
		in.Vouchers = append(in.Vouchers, document.VoucherData{
			VoucherNumber:  r.VoucherNumber,
			Company:        in.Company,
			Shareholder:    document.Party{Name: r.ShareholderName, Address: r.ShareholderAddress},
			ShareClass:     r.ShareClass,
			Shares:         r.Shares,
			AmountPerShare: r.AmountPerShare,
			TotalAmount:    r.TotalAmount,
			PaymentDate:    r.PaymentDate,
			TaxYear:        r.TaxYear,
			Signatory:      signatory,
			VerifyURL:      verifyURL(s.verifyBaseURL, r.ID),
		})
	}

	if req.IncludeCapTable {
		entries, err := s.companyRepo.ListCapTableRows(ctx, company.ID)
		if err != nil {
			return nil, err
		}
		table := buildCapTable(company.ID, entries, paymentDate)
		data := &document.CapTableData{AsOf: table.AsOf}
		for _, e := range table.Entries {
			data.Rows = append(data.Rows, document.CapTableRow{
				Holder:     e.ShareholderName,
				ShareClass: e.ShareClass,
				Shares:     e.Shares,
				Percentage: e.Percentage,
			})
		}
		in.CapTable = data
	}

	pack, err := s.generator.BoardPack(ctx, in, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToBuildBoardPack, err)
	}

	id := uuid.New().String()
	key := storage.DocumentKey(userID, boardPackFolder, id, document.FormatPDF.Extension())
	if err := s.store.Upload(ctx, key, document.FormatPDF.ContentType(), pack.PDF); err != nil {
		return nil, fmt.Errorf("failed to store board pack: %w", err)
	}

	filename := fmt.Sprintf("board-pack-%s.pdf", paymentDate.Format("2006-01-02"))
	token, err := s.downloads.Issue(userID, key, filename, document.FormatPDF.ContentType())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assembled board pack",
		"user_id", userID, "company_id", company.ID, "vouchers", len(records), "key", key)
	return &BoardPackResult{
		ID:            id,
		Sections:      pack.Sections,
		DownloadToken: token,
		ExpiresAt:     time.Now().UTC().Add(s.downloads.TTL()),
	}, nil
}
