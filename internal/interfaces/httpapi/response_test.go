package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_TerritoryTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "authorization", err: territory.Reject(territory.ErrNotInWar, ""), wantStatus: http.StatusForbidden, wantReason: "NotInWar"},
		{name: "precondition", err: territory.WithPOIName(territory.ErrNothingToContest, "Old Docks"), wantStatus: http.StatusBadRequest, wantReason: "NothingToContest"},
		{name: "resource", err: fmt.Errorf("debit: %w", territory.Reject(territory.ErrInsufficientResource, "")), wantStatus: http.StatusUnprocessableEntity, wantReason: "InsufficientResource"},
		{name: "conflict", err: territory.Reject(territory.ErrStateChanged, ""), wantStatus: http.StatusConflict, wantReason: "StateChanged"},
		{name: "duplicate", err: fmt.Errorf("%w: war exists", usecase.ErrConflict), wantStatus: http.StatusConflict, wantReason: "alreadyExists"},
		{name: "infrastructure", err: fmt.Errorf("db down"), wantStatus: http.StatusInternalServerError, wantReason: "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.wantStatus || got.Reason != tt.wantReason {
				t.Fatalf("mapError(%v)=%+v want status=%d reason=%s", tt.err, got, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestWriteError_ActionDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, territory.WithPOIName(territory.Reject(territory.ErrNotYourPOI, territory.StateControlled), "Warehouse 9"))

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error.Details["poiName"] != "Warehouse 9" || body.Error.Details["requiredState"] != "controlled" {
		t.Fatalf("unexpected details: %v", body.Error.Details)
	}
}
