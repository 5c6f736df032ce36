package validator

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"mangaworker/internal/scraper"
	"mangaworker/logger"
	"mangaworker/services/store"
)

// Status describes what the validator found for one collection.
type Status string

const (
	// StatusOK means the collection exists and was counted.
	StatusOK Status = "ok"
	// StatusMissing means the artifact or table does not exist at all.
	// Distinct from a zero count so operators can tell "pipeline never
	// ran" from "pipeline ran but under-produced".
	StatusMissing Status = "missing"
	// StatusUnreadable means the collection exists but could not be parsed.
	StatusUnreadable Status = "unreadable"
)

// CollectionReport is the validation outcome for one logical collection.
type CollectionReport struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Count    int    `json:"count"`
	MinCount int    `json:"min_count"`
	Met      bool   `json:"met"`
}

// Report aggregates collection reports into the pass/fail gate the upstream
// workflow keys on.
type Report struct {
	Collections []CollectionReport `json:"collections"`
	Passed      bool               `json:"passed"`
}

// NewReport builds a report; the gate passes only when every collection is
// present, readable and meets the minimum count.
func NewReport(collections ...CollectionReport) Report {
	passed := len(collections) > 0
	for _, c := range collections {
		if c.Status != StatusOK || !c.Met {
			passed = false
		}
	}
	return Report{Collections: collections, Passed: passed}
}

// ValidateArtifact reads back the persisted artifact and checks its record
// count against minCount. Pure read-and-report: no state is mutated.
func ValidateArtifact(path string, minCount int) CollectionReport {
	log := logger.ForValidator()
	report := CollectionReport{
		Name:     filepath.Base(path),
		MinCount: minCount,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			report.Status = StatusMissing
		} else {
			report.Status = StatusUnreadable
		}
		log.Warn().Str("path", path).Str("status", string(report.Status)).Msg("Artifact not countable")
		return report
	}

	var records []scraper.Record
	if err := json.Unmarshal(data, &records); err != nil {
		report.Status = StatusUnreadable
		log.Warn().Str("path", path).Err(err).Msg("Artifact is not a valid record array")
		return report
	}

	report.Status = StatusOK
	report.Count = len(records)
	report.Met = report.Count >= minCount

	log.Info().
		Str("path", path).
		Int("count", report.Count).
		Int("min", minCount).
		Bool("met", report.Met).
		Msg("Artifact validated")

	return report
}

// ValidateStore counts every table of the downstream store against
// minCount.
func ValidateStore(s *store.Store, minCount int) ([]CollectionReport, error) {
	log := logger.ForValidator()

	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return []CollectionReport{{
			Name:     store.TableManga,
			Status:   StatusMissing,
			MinCount: minCount,
		}}, nil
	}

	reports := make([]CollectionReport, 0, len(tables))
	for _, table := range tables {
		count, err := s.Count(table)
		if err != nil {
			return nil, err
		}
		report := CollectionReport{
			Name:     table,
			Status:   StatusOK,
			Count:    count,
			MinCount: minCount,
			Met:      count >= minCount,
		}
		reports = append(reports, report)

		log.Info().
			Str("table", table).
			Int("count", count).
			Int("min", minCount).
			Bool("met", report.Met).
			Msg("Table validated")
	}

	return reports, nil
}

// ValidateStorePath opens the database at path read-only-in-spirit and
// validates it, reporting missing when the file does not exist.
func ValidateStorePath(path string, minCount int) ([]CollectionReport, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return []CollectionReport{{
			Name:     store.TableManga,
			Status:   StatusMissing,
			MinCount: minCount,
		}}, nil
	}

	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return ValidateStore(s, minCount)
}
