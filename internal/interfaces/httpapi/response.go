package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "turf-war"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Status  string             `json:"status"`
	Errors  []googleErrorItem  `json:"errors,omitempty"`
	Details *googleErrorDetail `json:"details,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// googleErrorDetail is filled for rejected war actions only.
type googleErrorDetail struct {
	Kind          string `json:"kind"`
	POIName       string `json:"poiName,omitempty"`
	RequiredState string `json:"requiredState,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// Checked in order; the first sentinel found in the chain wins.
var sentinelErrors = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrConflict, mappedError{http.StatusConflict, "alreadyExists", "ALREADY_EXISTS"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

// Rejected actions use the territory code as the reason so clients can branch
// on it without parsing messages.
var actionKinds = map[territory.Kind]mappedError{
	territory.KindAuthorization: {HTTPStatus: http.StatusForbidden, Status: "PERMISSION_DENIED"},
	territory.KindPrecondition:  {HTTPStatus: http.StatusBadRequest, Status: "FAILED_PRECONDITION"},
	territory.KindResource:      {HTTPStatus: http.StatusUnprocessableEntity, Status: "RESOURCE_EXHAUSTED"},
	territory.KindConflict:      {HTTPStatus: http.StatusConflict, Status: "ABORTED"},
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	if kind, ok := territory.KindOf(err); ok {
		mapped, known := actionKinds[kind]
		if !known {
			mapped = actionKinds[territory.KindPrecondition]
		}
		mapped.Reason = territory.CodeOf(err)
		return mapped
	}
	for _, s := range sentinelErrors {
		if errors.Is(err, s.target) {
			return s.mapped
		}
	}
	return internalError
}

func actionErrorDetail(err error) *googleErrorDetail {
	var action *territory.ActionError
	if !errors.As(err, &action) {
		return nil
	}
	return &googleErrorDetail{
		Kind:          string(action.Kind),
		POIName:       action.POIName,
		RequiredState: string(action.RequiredState),
	}
}

func errorBody(mapped mappedError, message string, details *googleErrorDetail) *googleErrorBody {
	return &googleErrorBody{
		Code:    mapped.HTTPStatus,
		Message: message,
		Status:  mapped.Status,
		Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		Details: details,
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		http.Error(w, `{"apiVersion":"2.0","error":{"code":500,"message":"encode response","status":"INTERNAL"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.B)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error:      errorBody(mapped, err.Error(), actionErrorDetail(err)),
	})
}

// writeInternalError hides the cause from the client.
func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error:      errorBody(internalError, "internal server error", nil),
	})
}
