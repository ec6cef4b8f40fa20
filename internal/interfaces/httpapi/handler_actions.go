package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/turf-war/internal/usecase"
)

type poiTarget struct {
	warID    string
	poiID    string
	playerID string
}

func resolvePOITarget(r *http.Request) (poiTarget, error) {
	playerID, err := playerIDFromContext(r.Context())
	if err != nil {
		return poiTarget{}, err
	}
	target := poiTarget{
		warID:    strings.TrimSpace(r.PathValue("warID")),
		poiID:    strings.TrimSpace(r.PathValue("poiID")),
		playerID: playerID,
	}
	annotateTarget(r.Context(), target)
	return target, nil
}

func (h *Handler) EnterPOI(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnterPOI")
	defer span.End()

	target, err := resolvePOITarget(r.WithContext(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.presenceService.Enter(ctx, target.warID, target.poiID, target.playerID)
	if err != nil {
		h.logActionFailure(ctx, "enter", target, err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, presenceDTO{
		WarID:        record.WarID,
		POIID:        record.POIID,
		PlayerID:     record.PlayerID,
		FactionID:    record.FactionID,
		LastActionAt: record.LastActionAt.UTC(),
	})
}

func (h *Handler) LeavePOI(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeavePOI")
	defer span.End()

	target, err := resolvePOITarget(r.WithContext(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.presenceService.Leave(ctx, target.warID, target.poiID, target.playerID)
	if err != nil {
		h.logActionFailure(ctx, "leave", target, err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaveDTO{
		Removed: result.Removed,
		Release: string(result.Release),
	})
}

func (h *Handler) StartCapture(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "httpapi.Handler.StartCapture", usecase.ActionCapture, h.captureService.StartCapture)
}

func (h *Handler) ContestPOI(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "httpapi.Handler.ContestPOI", usecase.ActionContest, h.captureService.Contest)
}

func (h *Handler) DefendPOI(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "httpapi.Handler.DefendPOI", usecase.ActionDefend, h.captureService.Defend)
}

type captureAction func(ctx context.Context, warID, poiID, playerID string) (usecase.ActionResult, error)

func (h *Handler) runAction(w http.ResponseWriter, r *http.Request, spanName, action string, fn captureAction) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	target, err := resolvePOITarget(r.WithContext(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := fn(ctx, target.warID, target.poiID, target.playerID)
	if err != nil {
		h.logActionFailure(ctx, action, target, err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, actionResultToDTO(result))
}

func (h *Handler) logActionFailure(ctx context.Context, action string, target poiTarget, err error) {
	h.logger.WarnContext(ctx, "war action rejected",
		"action", action,
		"war_id", target.warID,
		"poi_id", target.poiID,
		"player_id", target.playerID,
		"error", err,
	)
}
