package httpapi

import (
	"net/http"

	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

// RouteMetrics instruments individual routes and serves the scrape endpoint.
type RouteMetrics interface {
	Instrument(route string, next http.Handler) http.Handler
	Handler() http.Handler
}

type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
	Metrics            RouteMetrics
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	r := &router{mux: http.NewServeMux(), metrics: cfg.Metrics}
	registerSystemRoutes(r, handler)
	registerPlayerRoutes(r, handler, verifier)
	registerInternalRoutes(r, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, r.mux))))
}

type router struct {
	mux     *http.ServeMux
	metrics RouteMetrics
}

// handle registers pattern and labels its metrics with the pattern itself, so
// path values never reach label cardinality.
func (r *router) handle(pattern string, h http.Handler) {
	if r.metrics != nil {
		h = r.metrics.Instrument(pattern, h)
	}
	r.mux.Handle(pattern, h)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
