package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/email"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
)

// Delivery is one email to send with stored documents attached.
type Delivery struct {
	UserID     string
	RunID      string // set when sent by the scheduled runner
	Recipients []string
	Subject    string
	HTML       string
	Files      []StoredFile
}

// DeliveryService emails stored documents and logs every attempt.
// Sending is attempted once; there is no retry.
type DeliveryService struct {
	documents     *DocumentService
	sentEmailRepo *repository.SentEmailRepository
	client        email.Client
	from          string
	converter     *md.Converter
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewDeliveryService creates a new DeliveryService. metrics may be nil.
func NewDeliveryService(
	documents *DocumentService,
	sentEmailRepo *repository.SentEmailRepository,
	client email.Client,
	from string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *DeliveryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryService{
		documents:     documents,
		sentEmailRepo: sentEmailRepo,
		client:        client,
		from:          from,
		converter:     md.NewConverter("", true, nil),
		metrics:       m,
		logger:        logger,
	}
}

// Send emails the requested vouchers and minutes of userID.
func (s *DeliveryService) Send(ctx context.Context, userID string, req request.DeliveryRequest) (*model.SentEmail, error) {
	if err := validation.ValidateDelivery(req); err != nil {
		return nil, err
	}

	files := make([]StoredFile, 0, len(req.DividendRecordIDs)+len(req.MinutesIDs))
	for _, id := range req.DividendRecordIDs {
		f, err := s.documents.DividendFile(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	for _, id := range req.MinutesIDs {
		f, err := s.documents.MinutesFile(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}

	return s.Deliver(ctx, Delivery{
		UserID:     userID,
		Recipients: req.Recipients,
		Subject:    req.Subject,
		HTML:       req.HTML,
		Files:      files,
	})
}

// Deliver sends d and records the attempt in sent_emails. A provider failure
// is recorded and returned wrapped in apperrors.ErrFailedToSendEmail.
func (s *DeliveryService) Deliver(ctx context.Context, d Delivery) (*model.SentEmail, error) {
	body := d.HTML
	if strings.TrimSpace(body) == "" {
		body = defaultDeliveryHTML(d.Files)
	}
	text, err := s.converter.ConvertString(body)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build plain text body", "error", err)
		text = ""
	}

	msg := email.Message{
		From:    s.from,
		To:      d.Recipients,
		Subject: d.Subject,
		HTML:    body,
		Text:    text,
	}
	for _, f := range d.Files {
		msg.Attachments = append(msg.Attachments, email.Attachment{
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Content:     f.Data,
		})
	}

	sent := &model.SentEmail{
		ID:              uuid.New().String(),
		UserID:          d.UserID,
		RunID:           d.RunID,
		Recipients:      d.Recipients,
		Subject:         d.Subject,
		AttachmentCount: len(d.Files),
		CreatedAt:       time.Now().UTC(),
	}

	providerID, sendErr := s.client.Send(ctx, msg)
	if sendErr != nil {
		sent.Status = model.EmailFailed
		sent.ErrorMessage = sendErr.Error()
		s.logger.ErrorContext(ctx, "email delivery failed",
			"user_id", d.UserID, "run_id", d.RunID, "recipients", len(d.Recipients), "error", sendErr)
	} else {
		sent.Status = model.EmailSent
		sent.ProviderMessageID = providerID
		s.logger.InfoContext(ctx, "email delivered",
			"user_id", d.UserID, "run_id", d.RunID, "message_id", providerID, "attachments", len(d.Files))
	}
	if s.metrics != nil {
		s.metrics.EmailsTotal.WithLabelValues(string(sent.Status)).Inc()
	}

	if err := s.sentEmailRepo.InsertSentEmail(ctx, sent); err != nil {
		s.logger.ErrorContext(ctx, "failed to log email attempt", "email_id", sent.ID, "error", err)
	}

	if sendErr != nil {
		return sent, fmt.Errorf("%w: %w", apperrors.ErrFailedToSendEmail, sendErr)
	}
	return sent, nil
}

// History lists the delivery attempts of userID, newest first.
func (s *DeliveryService) History(ctx context.Context, userID string) ([]model.SentEmail, error) {
	return s.sentEmailRepo.ListSentEmails(ctx, userID)
}

func defaultDeliveryHTML(files []StoredFile) string {
	var b strings.Builder
	b.WriteString("<p>Please find the following documents attached:</p><ul>")
	for _, f := range files {
		b.WriteString("<li>" + html.EscapeString(f.Filename) + "</li>")
	}
	b.WriteString("</ul><p>Please keep them with your company records.</p>")
	return b.String()
}
