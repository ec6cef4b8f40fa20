package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/turf-war/internal/usecase"
)

func (h *Handler) RunWarTickJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWarTickJob")
	defer span.End()

	if h.tickRunner == nil {
		writeError(ctx, w, fmt.Errorf("%w: tick processor is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.tickRunner.RunTick(ctx, tickTriggerInternalJob)
	if err != nil {
		h.logger.WarnContext(ctx, "run war tick job failed", "dispatch_id", result.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListWarTickDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWarTickDispatches")
	defer span.End()

	if h.tickRunner == nil {
		writeError(ctx, w, fmt.Errorf("%w: tick processor is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	events, err := h.tickRunner.RecentDispatches(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]dispatchDTO, 0, len(events))
	for _, event := range events {
		out = append(out, dispatchToDTO(event))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
