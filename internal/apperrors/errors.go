package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrProfileNotFound indicates that no profile exists for the authenticated user.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCompanyNotFound indicates that a company with the given ID does not exist for the user.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrShareholderNotFound indicates that a shareholder with the given ID does not exist.
	ErrShareholderNotFound = errors.New("shareholder not found")

	// ErrScheduleNotFound indicates that a recurring dividend schedule does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrRunNotFound indicates that a scheduled dividend run does not exist.
	ErrRunNotFound = errors.New("scheduled run not found")

	// ErrDividendRecordNotFound indicates that a dividend record with the given ID does not exist.
	ErrDividendRecordNotFound = errors.New("dividend record not found")

	// ErrMinutesNotFound indicates that a board minutes record does not exist.
	ErrMinutesNotFound = errors.New("board minutes not found")

	// ErrFileNotFound indicates that a stored document does not exist in object storage.
	ErrFileNotFound = errors.New("file not found")

	ErrCompanyHouseNotFound = errors.New("company not found at companies house")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrUsageLimitExceeded indicates that the monthly quota of the user's plan is used up.
	// This is an expected outcome rather than a failure; callers should offer an upgrade.
	ErrUsageLimitExceeded = errors.New("monthly usage limit reached for current plan")

	// ErrInvalidRunTransition indicates an attempt to move a run backwards or out of a terminal state.
	ErrInvalidRunTransition = errors.New("invalid run status transition")

	// ErrDuplicateRun indicates that a run already exists for the schedule and due date.
	ErrDuplicateRun = errors.New("run already exists for schedule and date")

	// ErrRequestConflict indicates that a request id was recorded but its document cannot be returned.
	ErrRequestConflict = errors.New("request id already used")

	// ErrMixedPaymentDates indicates that a board pack selection spans more than one payment date.
	ErrMixedPaymentDates = errors.New("selected vouchers must share one payment date")

	// ErrEmptySelection indicates that a board pack has no vouchers selected.
	ErrEmptySelection = errors.New("at least one voucher must be selected")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrUnauthorized indicates a missing or invalid authenticated user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidDownloadToken indicates a download token that is malformed, tampered or expired.
	ErrInvalidDownloadToken = errors.New("invalid or expired download token")

	// ErrUnsupportedFormat indicates a document format other than pdf or docx.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUnsupportedTaxYear indicates a tax year without a configured rate table.
	ErrUnsupportedTaxYear = errors.New("unsupported tax year")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveSchedules = errors.New("failed to retrieve schedules")
	ErrFailedToRetrieveRuns      = errors.New("failed to retrieve scheduled runs")
	ErrFailedToRetrieveDividends = errors.New("failed to retrieve dividend records")
	ErrFailedToRetrieveMinutes   = errors.New("failed to retrieve board minutes")
	ErrFailedToRetrieveCompanies = errors.New("failed to retrieve companies")
	ErrFailedToRetrieveUsage     = errors.New("failed to retrieve usage")
	ErrFailedToGenerateDocument  = errors.New("failed to generate document")
	ErrFailedToBuildBoardPack    = errors.New("failed to build board pack")
	ErrFailedToSendEmail         = errors.New("failed to send email")
	ErrFailedToQueryCompanyHouse = errors.New("failed to query companies house")
	ErrFailedToGetVersionInfo    = errors.New("failed to get version information")
)
