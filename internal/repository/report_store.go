package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/moddy-app/moddysystems/internal/domain"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// ReportStore persists status reports keyed by the id of the message that
// displays them.
type ReportStore interface {
	Get(id string) (*domain.StatusReport, error)
	Save(report *domain.StatusReport) error
	All() ([]*domain.StatusReport, error)
}

// fileReportStore keeps the whole store as a single JSON object on disk and
// rewrites the full file on every mutation. Snapshot semantics only: there
// is no atomic rename or fsync, so a crash mid-write can lose the file.
// That durability weakness is part of the store's contract.
type fileReportStore struct {
	mu   sync.Mutex
	path string
}

// NewFileReportStore builds a store backed by the given JSON file. The file
// is created on first save; a missing file reads as an empty store.
func NewFileReportStore(path string) ReportStore {
	return &fileReportStore{path: path}
}

func (s *fileReportStore) Get(id string) (*domain.StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return nil, err
	}
	report, ok := reports[id]
	if !ok {
		return nil, util.NewNotFound("status report", map[string]any{"id": id})
	}
	report.ID = id
	return report, nil
}

func (s *fileReportStore) Save(report *domain.StatusReport) error {
	if report.ID == "" {
		return util.NewValidationError("status report has no message id", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return err
	}
	reports[report.ID] = report
	return s.write(reports)
}

func (s *fileReportStore) All() ([]*domain.StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return nil, err
	}
	result := make([]*domain.StatusReport, 0, len(reports))
	for id, report := range reports {
		report.ID = id
		result = append(result, report)
	}
	return result, nil
}

func (s *fileReportStore) load() (map[string]*domain.StatusReport, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*domain.StatusReport{}, nil
		}
		return nil, util.NewStoreUnavailable(err)
	}

	reports := map[string]*domain.StatusReport{}
	if len(data) == 0 {
		return reports, nil
	}
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, util.NewStoreUnavailable(fmt.Errorf("decode %s: %w", s.path, err))
	}
	return reports, nil
}

func (s *fileReportStore) write(reports map[string]*domain.StatusReport) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return util.NewStoreUnavailable(err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return util.NewStoreUnavailable(err)
	}
	return nil
}
