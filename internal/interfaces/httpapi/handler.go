package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/turf-war/internal/domain/jobscheduler"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
	"github.com/riskibarqy/turf-war/internal/usecase"
)

const tickTriggerInternalJob = "internal-job"

type tickRunner interface {
	RunTick(ctx context.Context, trigger string) (usecase.TickResult, error)
	RecentDispatches(ctx context.Context, limit int) ([]jobscheduler.DispatchEvent, error)
}

type Handler struct {
	warService      *usecase.WarService
	captureService  *usecase.CaptureService
	presenceService *usecase.PresenceService
	tickRunner      tickRunner
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	warService *usecase.WarService,
	captureService *usecase.CaptureService,
	presenceService *usecase.PresenceService,
	tickProcessor *usecase.TickProcessor,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	h := &Handler{
		warService:      warService,
		captureService:  captureService,
		presenceService: presenceService,
		logger:          logger.Named("httpapi"),
		validator:       validator.New(),
	}
	if tickProcessor != nil {
		h.tickRunner = tickProcessor
	}
	return h
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON rejects unknown fields and an empty body.
func decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// playerIDFromContext resolves the acting player from the verified principal.
func playerIDFromContext(ctx context.Context) (string, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return "", fmt.Errorf("%w: missing auth principal", usecase.ErrUnauthorized)
	}
	return strings.TrimSpace(principal.UserID), nil
}

// queryLimit reads an optional positive ?limit= value; 0 means unset.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}
