package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/turf-war/internal/usecase"
)

type beginWarRequest struct {
	WarID             string            `json:"war_id" validate:"omitempty,max=64"`
	DistrictID        string            `json:"district_id" validate:"required,max=64"`
	AttackerFactionID string            `json:"attacker_faction_id" validate:"required,max=64"`
	DefenderFactionID string            `json:"defender_faction_id" validate:"required,max=64,nefield=AttackerFactionID"`
	InitialControl    map[string]string `json:"initial_control" validate:"omitempty,dive,keys,required,endkeys,required"`
}

func (h *Handler) GetWarStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWarStatus")
	defer span.End()

	playerID, err := playerIDFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	warID := strings.TrimSpace(r.PathValue("warID"))

	status, err := h.captureService.GetStatus(ctx, warID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get war status failed", "war_id", warID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, warStatusToDTO(status))
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScoreboard")
	defer span.End()

	warID := strings.TrimSpace(r.PathValue("warID"))
	board, err := h.warService.Scoreboard(ctx, warID)
	if err != nil {
		h.logger.WarnContext(ctx, "get scoreboard failed", "war_id", warID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreboardToDTO(board))
}

func (h *Handler) ListWarEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWarEvents")
	defer span.End()

	warID := strings.TrimSpace(r.PathValue("warID"))
	limit, err := queryLimit(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.warService.Get(ctx, warID); err != nil {
		writeError(ctx, w, err)
		return
	}
	events, err := h.warService.RecentEvents(ctx, warID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list war events failed", "war_id", warID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]warEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, warEventToDTO(event))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) BeginWar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BeginWar")
	defer span.End()

	var req beginWarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.warService.BeginWar(ctx, usecase.BeginWarInput{
		WarID:             req.WarID,
		DistrictID:        req.DistrictID,
		AttackerFactionID: req.AttackerFactionID,
		DefenderFactionID: req.DefenderFactionID,
		InitialControl:    req.InitialControl,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "begin war failed", "district_id", req.DistrictID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, warSessionToDTO(session))
}

func (h *Handler) EndWar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndWar")
	defer span.End()

	warID := strings.TrimSpace(r.PathValue("warID"))
	session, err := h.warService.EndWar(ctx, warID)
	if err != nil {
		h.logger.WarnContext(ctx, "end war failed", "war_id", warID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, warSessionToDTO(session))
}
