package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// boardPackTimeout bounds a build that no longer has a client waiting for it.
const boardPackTimeout = 2 * time.Minute

// BoardPackHandler handles board pack assembly requests.
type BoardPackHandler struct {
	boardPackService *service.BoardPackService
	logger           *slog.Logger
}

// NewBoardPackHandler creates a new BoardPackHandler.
func NewBoardPackHandler(boardPackService *service.BoardPackService, logger *slog.Logger) *BoardPackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardPackHandler{
		boardPackService: boardPackService,
		logger:           logger,
	}
}

// ProgressEvent is one stage of a board pack build.
type ProgressEvent struct {
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

// ErrorEvent ends a stream whose build failed.
type ErrorEvent struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// BuildBoardPack handles POST requests to assemble a board pack PDF from
// existing minutes and vouchers. The response carries a signed download link.
//
// Clients sending Accept: text/event-stream receive "progress" events for each
// stage, then a single "complete" event with the result or an "error" event.
// A client that disconnects abandons the stream; the build still finishes and
// its pack stays available through the stored download.
//
// Endpoint: POST /api/board-pack
// Request Body: BoardPackRequest (companyId, yearEnd, paymentDate, dividendRecordIds, minutesId, and optionally includeCapTable, template, preparedBy)
// Response: 201 Created with BoardPackResult, or 200 OK with an event stream
// Error: 400 Bad Request if validation fails, no vouchers are selected or payment dates differ
// Error: 404 Not Found if the company, minutes or a voucher does not exist
// Error: 500 Internal Server Error if assembly fails
func (h *BoardPackHandler) BuildBoardPack(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.BoardPackRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		if flusher, ok := w.(http.Flusher); ok {
			h.stream(w, r, flusher, userID, req)
			return
		}
	}

	ctx, cancel := buildContext(r)
	defer cancel()

	result, err := h.boardPackService.Build(ctx, userID, req, nil)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToBuildBoardPack.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

func (h *BoardPackHandler) stream(w http.ResponseWriter, r *http.Request, flusher http.Flusher, userID string, req request.BoardPackRequest) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := buildContext(r)
	defer cancel()

	result, err := h.boardPackService.Build(ctx, userID, req, func(step, total int, label string) {
		if err := h.sendEvent(w, flusher, "progress", ProgressEvent{Step: step, Total: total, Label: label}); err != nil {
			h.logger.Debug("board pack client disconnected", "error", err)
		}
	})
	if err != nil {
		//nolint:errcheck // the stream is over either way
		h.sendEvent(w, flusher, "error", ErrorEvent{Error: apperrors.ErrFailedToBuildBoardPack.Error(), Details: err.Error()})
		return
	}
	//nolint:errcheck // the stream is over either way
	h.sendEvent(w, flusher, "complete", result)
}

// buildContext keeps the request's values but not its cancellation, so a
// disconnect does not stop a build halfway through.
func buildContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), boardPackTimeout)
}

func (h *BoardPackHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Warn("failed to marshal board pack event", "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	flusher.Flush()
	return nil
}
