package reportapi

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/yggmesh/routeopt/governance"
	"github.com/yggmesh/routeopt/optimizer"
)

// optimizeReportTTL is how long a computed optimization report is cached
// before the next request recomputes it.
const optimizeReportTTL = 5 * time.Second

const optimizeReportCacheKey = "routeopt:optimize-report"

// Server is the thin external HTTP adapter over an Optimizer: read-only
// route/optimization reports, plus an authenticated governance-proposal
// submission endpoint. Its RegisterRoutes/writeJSON/writeError shape
// mirrors the teacher's tenancy.TenantAPI.
type Server struct {
	opt      *optimizer.Optimizer
	sink     *governance.Sink
	verifier *governance.Verifier
	cache    *ReportCache
	logger   *zap.SugaredLogger
}

// NewServer creates a Server. verifier may be nil to disable the governance
// endpoint's auth check (e.g. in a trusted internal deployment); cache may
// be nil to disable response caching.
func NewServer(opt *optimizer.Optimizer, sink *governance.Sink, verifier *governance.Verifier, cache *ReportCache, logger *zap.SugaredLogger) *Server {
	return &Server{opt: opt, sink: sink, verifier: verifier, cache: cache, logger: logger}
}

// RegisterRoutes wires the server's endpoints onto router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/routes/report", s.handleRouteReport).Methods(http.MethodGet)
	router.HandleFunc("/optimize/report", s.handleOptimizeReport).Methods(http.MethodGet)
	router.HandleFunc("/governance/proposals", s.handleGovernanceProposal).Methods(http.MethodPost)
}

// Handler returns router wrapped with the teacher's permissive CORS policy,
// ready to pass to http.Serve.
func Handler(router *mux.Router) http.Handler {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		Debug:          false,
	})
	return corsMiddleware.Handler(router)
}

func (s *Server) handleRouteReport(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	report := s.opt.GetRouteReport(destination, time.Now())
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleOptimizeReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, optimizeReportCacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	report := s.opt.Cycle(time.Now())

	body, err := json.Marshal(report)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "encode_failed", "failed to encode report")
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, optimizeReportCacheKey, body, optimizeReportTTL); err != nil {
			s.logger.Warnw("failed to cache optimize report", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type governanceProposalRequest struct {
	Proposals []governance.Proposal `json:"proposals"`
}

func (s *Server) handleGovernanceProposal(w http.ResponseWriter, r *http.Request) {
	if s.verifier != nil {
		token, err := governance.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "missing_token", err.Error())
			return
		}
		if _, err := s.verifier.Verify(token); err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}
	}

	var req governanceProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	applied := s.sink.ApplyExecutedProposals(req.Proposals)
	s.writeJSON(w, http.StatusOK, map[string]int{"applied": applied})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorw("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errorType, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"type":    errorType,
			"message": message,
			"code":    status,
		},
	})
}
