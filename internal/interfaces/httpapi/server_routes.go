package httpapi

import "net/http"

func registerSystemRoutes(r *router, handler *Handler) {
	r.mux.HandleFunc("GET /healthz", handler.Healthz)
	if r.metrics != nil {
		r.mux.Handle("GET /metrics", r.metrics.Handler())
	}
}

func registerPlayerRoutes(r *router, handler *Handler, verifier TokenVerifier) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, fn)
	}

	r.handle("GET /v1/wars/{warID}/status", authed(handler.GetWarStatus))
	r.handle("GET /v1/wars/{warID}/scoreboard", authed(handler.GetScoreboard))
	r.handle("GET /v1/wars/{warID}/events", authed(handler.ListWarEvents))
	r.handle("POST /v1/wars/{warID}/pois/{poiID}/enter", authed(handler.EnterPOI))
	r.handle("POST /v1/wars/{warID}/pois/{poiID}/leave", authed(handler.LeavePOI))
	r.handle("POST /v1/wars/{warID}/pois/{poiID}/capture", authed(handler.StartCapture))
	r.handle("POST /v1/wars/{warID}/pois/{poiID}/contest", authed(handler.ContestPOI))
	r.handle("POST /v1/wars/{warID}/pois/{poiID}/defend", authed(handler.DefendPOI))
}

func registerInternalRoutes(r *router, handler *Handler, internalJobToken string) {
	internal := func(fn http.HandlerFunc) http.Handler {
		return RequireInternalJobToken(internalJobToken, fn)
	}

	r.handle("POST /v1/internal/jobs/war-tick", internal(handler.RunWarTickJob))
	r.handle("GET /v1/internal/jobs/war-tick/dispatches", internal(handler.ListWarTickDispatches))
	r.handle("POST /v1/internal/wars", internal(handler.BeginWar))
	r.handle("POST /v1/internal/wars/{warID}/end", internal(handler.EndWar))
}
