package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mrzgate/internal/mrz/models"
	"mrzgate/internal/mrz/service"
	dErrors "mrzgate/pkg/domain-errors"
	"mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/httputil"
	"mrzgate/pkg/requestcontext"
)

// Service defines the MRZ operations exposed over HTTP.
type Service interface {
	Generate(ctx context.Context, record models.IdentityRecord) (*service.GenerateResult, error)
	Validate(ctx context.Context, text string) (*service.ValidateResult, error)
	ValidateBatch(ctx context.Context, texts []string) ([]*service.ValidateResult, error)
	Report(ctx context.Context, id models.ReportID) (*models.Report, error)
	ReportAudit(ctx context.Context, id models.ReportID) ([]audit.Event, error)
}

// Handler serves the /mrz endpoints.
type Handler struct {
	service    Service
	logger     *slog.Logger
	adminGuard func(http.Handler) http.Handler
}

// New creates a Handler. Report lookups and audit trails are only routed when
// adminGuard is set.
func New(svc Service, logger *slog.Logger, adminGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:    svc,
		logger:     logger,
		adminGuard: adminGuard,
	}
}

// Register registers the MRZ routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/mrz", func(r chi.Router) {
		r.Post("/generate", h.HandleGenerate)
		r.Post("/validate", h.HandleValidate)
		r.Post("/validate/batch", h.HandleValidateBatch)
		if h.adminGuard != nil {
			r.With(h.adminGuard).Get("/reports/{id}", h.HandleGetReport)
			r.With(h.adminGuard).Get("/reports/{id}/audit", h.HandleGetReportAudit)
		}
	})
}

// HandleGenerate encodes the posted identity record and returns its MRZ lines
// with the check digit working behind them.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GenerateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Generate(ctx, req.Record())
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to generate mrz")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, generateResponseFromResult(res))
}

// HandleValidate analyzes one MRZ and stores a report. An unrecognized layout
// is a 200 with format_error set, not a client error.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Validate(ctx, req.MRZ)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to validate mrz")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponseFromResult(res))
}

// HandleValidateBatch analyzes every item and answers in request order.
func (h *Handler) HandleValidateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.service.ValidateBatch(ctx, req.Items)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to validate batch")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batchResponseFromResults(results))
}

// HandleGetReport returns a stored, unexpired report. Routed behind the admin guard.
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load report")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reportResponseFromModel(report))
}

// HandleGetReportAudit lists the audit events recorded for a report. Routed
// behind the admin guard.
func (h *Handler) HandleGetReportAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	events, err := h.service.ReportAudit(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list report audit events")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reportAuditResponseFromEvents(id, events))
}

func reportID(w http.ResponseWriter, r *http.Request) (models.ReportID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid report id"))
		return models.ReportID{}, false
	}
	return id, true
}

// writeServiceError logs at warn for client errors and at error otherwise.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
