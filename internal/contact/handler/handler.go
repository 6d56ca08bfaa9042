package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contactlink/internal/contact/models"
	"contactlink/internal/contact/service"
	"contactlink/internal/platform/metrics"
	"contactlink/internal/platform/middleware"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/httputil"
	"contactlink/pkg/platform/middleware/metadata"
	"contactlink/pkg/platform/middleware/requesttime"
)

// ErrMsgInvalidJSON is returned for bodies that are not a JSON object of the
// expected shape.
const ErrMsgInvalidJSON = "Invalid JSON body"

const defaultRequestTimeout = 10 * time.Second

// Service defines the interface for identity reconciliation.
type Service interface {
	Identify(ctx context.Context, in service.IdentifyInput) (*models.Identity, error)
}

// Handler serves the identify endpoint.
type Handler struct {
	logger         *slog.Logger
	identity       Service
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates a new identify Handler. A zero requestTimeout uses the default.
func New(identity Service, logger *slog.Logger, metrics *metrics.Metrics, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Handler{
		logger:         logger,
		identity:       identity,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}
}

// Register registers the identify routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	identifyRouter := chi.NewRouter()
	identifyRouter.Use(middleware.Recovery(h.logger, h.metrics))
	identifyRouter.Use(middleware.RequestID)
	identifyRouter.Use(requesttime.Middleware)
	identifyRouter.Use(metadata.ClientMetadata)
	identifyRouter.Use(middleware.Logger(h.logger))
	identifyRouter.Use(middleware.Timeout(h.requestTimeout))
	identifyRouter.Use(middleware.ContentTypeJSON)
	identifyRouter.Use(middleware.LatencyMiddleware(h.metrics))
	identifyRouter.Post("/identify", h.handleIdentify)

	r.Mount("/", identifyRouter)
}

// handleIdentify reconciles the submitted contact and returns its identity.
func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req IdentifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		h.logger.WarnContext(ctx, "invalid identify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, ErrMsgInvalidJSON))
		return
	}

	identity, err := h.identity.Identify(ctx, req.ToInput())
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "invalid identify request",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to identify contact",
			"request_id", requestID,
			"code", dErrors.CodeOf(err),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, httputil.InternalErrorMessage))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewIdentifyResponse(identity))
}
