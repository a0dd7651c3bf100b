package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"hisab/internal/sheets"
)

// Store keeps exported reports in memory. It is used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu      sync.Mutex
	reports []sheets.Report
	refs    map[string]string
}

var _ sheets.ReportExporter = (*Store)(nil)

func New() *Store {
	return &Store{refs: make(map[string]string)}
}

// ExportReport stores the report and returns a synthetic reference. A report
// ID seen before returns its first reference without storing a copy.
func (s *Store) ExportReport(_ context.Context, r sheets.Report) (string, error) {
	if r.ID == "" {
		return "", errors.New("report id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[r.ID]; ok {
		return ref, nil
	}
	r.Monthly = slices.Clone(r.Monthly)
	r.Categories = slices.Clone(r.Categories)
	s.reports = append(s.reports, r)
	ref := fmt.Sprintf("mem:%d", len(s.reports))
	s.refs[r.ID] = ref
	return ref, nil
}

// Reports returns what has been exported so far, oldest first.
func (s *Store) Reports() []sheets.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reports)
}
