package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"neuromatch/domain/match"
)

func TestStoreResult_EvictsOldestAtCap(t *testing.T) {
	s := NewServer(nil)

	first := s.storeResult(&match.MatchResult{Message: "first"})
	for i := 1; i < maxStoredReports; i++ {
		s.storeResult(&match.MatchResult{})
	}
	if _, ok := s.results[first]; !ok {
		t.Fatal("first report should still be stored at the cap")
	}

	last := s.storeResult(&match.MatchResult{Message: "last"})

	if len(s.results) != maxStoredReports {
		t.Errorf("store holds %d reports, want %d", len(s.results), maxStoredReports)
	}
	if _, ok := s.results[first]; ok {
		t.Error("oldest report should have been evicted")
	}
	if _, ok := s.results[last]; !ok {
		t.Error("newest report should be stored")
	}
	if len(s.order) != maxStoredReports {
		t.Errorf("order ledger holds %d IDs, want %d", len(s.order), maxStoredReports)
	}
}

func TestHandleReport_EvictedReportIs404(t *testing.T) {
	s := NewServer(nil)
	router := s.Router()

	first := s.storeResult(&match.MatchResult{Success: true, Message: "kept briefly"})
	for i := 0; i < maxStoredReports; i++ {
		s.storeResult(&match.MatchResult{})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+first, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("evicted report returned %d, want 404", rec.Code)
	}
}

func TestHandleReport_ServesStoredResult(t *testing.T) {
	s := NewServer(nil)
	router := s.Router()

	id := s.storeResult(&match.MatchResult{Success: true, Message: "matched 4 cases to 4 controls"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("stored report returned %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}
