package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/obsoper/internal/domain"
	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
	logpkg "github.com/kailas-cloud/obsoper/internal/logger"
	healthuc "github.com/kailas-cloud/obsoper/internal/usecase/health"
	interpuc "github.com/kailas-cloud/obsoper/internal/usecase/interpolation"
)

const defaultMaxBodyBytes = 64 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the grid API over HTTP.
type Server struct {
	interp        *interpuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(interp *interpuc.Service, health *healthuc.Service, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		interp:       interp,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeGridNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeGridAlreadyExists),
		sentinelHandler(domain.ErrInvalidModel, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidGrid, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrShapeMismatch, http.StatusBadRequest, ErrorCodeShapeMismatch),
		sentinelHandler(domain.ErrUnknownAlgorithm, http.StatusBadRequest, ErrorCodeUnknownAlgorithm),
		sentinelHandler(domain.ErrNotInGrid, http.StatusUnprocessableEntity, ErrorCodeNotInGrid),
		searchFailedHandler,
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/grids", func(r chi.Router) {
		r.Post("/", s.CreateGrid)
		r.Get("/", s.ListGrids)
		r.Route("/{name}", func(r chi.Router) {
			r.Use(gridLogger)
			r.Get("/", s.GetGrid)
			r.Delete("/", s.DeleteGrid)
			r.Post("/lower-left", s.LowerLeft)
			r.Post("/interpolate", s.Interpolate)
		})
	})
}

// gridLogger tags the request logger with the grid named in the path.
func gridLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logpkg.WithGrid(r.Context(), chi.URLParam(r, "name"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateGrid handles POST /grids.
func (s *Server) CreateGrid(w http.ResponseWriter, r *http.Request) {
	var req createGridRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Grid name is required")
		return
	}

	m, err := s.interp.Create(r.Context(), req.Name, dommodel.Layout(req.Layout), req.Lons, req.Lats, req.Halo)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeBody(w, r, http.StatusCreated, summaryToResponse(m.Summary()))
}

// ListGrids handles GET /grids.
func (s *Server) ListGrids(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.interp.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]gridResponse, len(summaries))
	for i, sm := range summaries {
		items[i] = summaryToResponse(sm)
	}
	writeBody(w, r, http.StatusOK, listGridsResponse{Grids: items})
}

// GetGrid handles GET /grids/{name}.
func (s *Server) GetGrid(w http.ResponseWriter, r *http.Request) {
	m, err := s.interp.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeBody(w, r, http.StatusOK, summaryToResponse(m.Summary()))
}

// DeleteGrid handles DELETE /grids/{name}.
func (s *Server) DeleteGrid(w http.ResponseWriter, r *http.Request) {
	if err := s.interp.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LowerLeft handles POST /grids/{name}/lower-left.
func (s *Server) LowerLeft(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Lons) != len(req.Lats) {
		writeError(w, http.StatusBadRequest, ErrorCodeShapeMismatch, "lons and lats must have the same length")
		return
	}

	i, j, err := s.interp.LowerLeft(r.Context(), chi.URLParam(r, "name"), req.Lons, req.Lats)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeBody(w, r, http.StatusOK, lowerLeftResponse{I: i, J: j})
}

// Interpolate handles POST /grids/{name}/interpolate.
func (s *Server) Interpolate(w http.ResponseWriter, r *http.Request) {
	var req interpolateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Lons) != len(req.Lats) {
		writeError(w, http.StatusBadRequest, ErrorCodeShapeMismatch, "lons and lats must have the same length")
		return
	}
	field, err := req.Field.toArray()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeShapeMismatch, err.Error())
		return
	}

	res, err := s.interp.Interpolate(r.Context(), chi.URLParam(r, "name"), req.Lons, req.Lats, field)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeBody(w, r, http.StatusOK, interpolateResponse{
		Included: res.Included,
		Values:   arrayToDTO(res.Values),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := decodeBody(r, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// safeDomainMessage returns the sentinel text of err, hiding internals.
func safeDomainMessage(err error) string {
	var sf *domain.SearchFailedError
	if errors.As(err, &sf) {
		return sf.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidModel,
		domain.ErrInvalidGrid,
		domain.ErrShapeMismatch,
		domain.ErrUnknownAlgorithm,
		domain.ErrNotInGrid,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return validationDetail(err, s)
		}
	}
	return "internal error"
}

// validationDetail keeps the full chain for client-caused errors, which
// only carry names, shapes and coordinates from the request.
func validationDetail(err, sentinel error) string {
	switch sentinel {
	case domain.ErrNotFound, domain.ErrAlreadyExists:
		return sentinel.Error()
	default:
		return err.Error()
	}
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func searchFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrSearchFailed) {
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, ErrorCodeSearchFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
