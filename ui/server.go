package ui

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"neuromatch/adapters/report"
	"neuromatch/app"
	"neuromatch/domain/core"
	"neuromatch/domain/match"
	"neuromatch/domain/sample"
)

// maxStoredReports caps the in-memory report store; the oldest report is
// evicted once the cap is reached.
const maxStoredReports = 128

// Server is the HTML report surface: it runs matches and serves rendered
// match reports. Results are kept in memory per report ID, bounded by
// maxStoredReports; nothing here persists across restarts.
type Server struct {
	matcher  *app.MatchingService
	renderer *report.MarkdownWriter

	mu      sync.RWMutex
	results map[string]*match.MatchResult
	order   []string
}

// NewServer creates the report server
func NewServer(matcher *app.MatchingService) *Server {
	return &Server{
		matcher:  matcher,
		renderer: report.NewMarkdownWriter(),
		results:  make(map[string]*match.MatchResult),
	}
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/match", s.handleMatch)
	r.Get("/reports/{reportID}", s.handleReport)
	return r
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var criteria sample.MatchingCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.matcher.FindMatchedSets(r.Context(), criteria)
	if err != nil {
		if core.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	reportID := s.storeResult(result)
	http.Redirect(w, r, "/reports/"+reportID, http.StatusSeeOther)
}

// storeResult registers a result under a fresh report ID, evicting the
// oldest stored report when the cap is reached.
func (s *Server) storeResult(result *match.MatchResult) string {
	reportID := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) >= maxStoredReports {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}
	s.results[reportID] = result
	s.order = append(s.order, reportID)
	return reportID
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	s.mu.RLock()
	result, ok := s.results[reportID]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.renderer.RenderHTML(result))
}
