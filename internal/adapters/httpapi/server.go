package httpapi

import (
	"net/http"

	"github.com/juju/loggo/v2"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

var logger = loggo.GetLogger("vsbench.adapters.httpapi")

// Server serves the persisted result documents.
type Server struct {
	Results resultstore.Reader
}

func NewServer(results resultstore.Reader) *Server {
	return &Server{Results: results}
}

// GetOperations returns the operation results document, optionally narrowed
// to one strategy with ?strategy=.
func (s *Server) GetOperations(w http.ResponseWriter, r *http.Request) {
	strategy, ok := strategyParam(w, r)
	if !ok {
		return
	}
	doc, found, err := s.Results.LoadOperations(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no operation results have been written yet", nil)
		return
	}
	if strategy != "" {
		doc = resultstore.OperationResults{strategy: doc[strategy]}
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetSearch returns the search results document, optionally narrowed to one
// strategy with ?strategy=.
func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request) {
	strategy, ok := strategyParam(w, r)
	if !ok {
		return
	}
	doc, found, err := s.Results.LoadSearch(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no search results have been written yet", nil)
		return
	}
	if strategy != "" {
		doc = resultstore.SearchResults{strategy: doc[strategy]}
	}
	writeJSON(w, http.StatusOK, doc)
}

func strategyParam(w http.ResponseWriter, r *http.Request) (domain.Strategy, bool) {
	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		return "", true
	}
	s, err := domain.ParseStrategy(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]any{"strategy": raw})
		return "", false
	}
	return s, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load results", nil)
}
