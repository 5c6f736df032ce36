package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mangaworker/internal/scraper"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
)

// Persist writes the full record list as an indented UTF-8 JSON array at
// path, creating parent directories as needed. Each run overwrites the
// previous artifact: the file is a complete snapshot, never an append
// target. A nil slice still produces a valid empty array so readers always
// see a closed structure.
func Persist(records []scraper.Record, path string) error {
	if records == nil {
		records = []scraper.Record{}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pkgerrors.NewPersist("mkdir", fmt.Sprintf("failed to create %s", dir), err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return pkgerrors.NewPersist("encode", "failed to marshal records", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pkgerrors.NewPersist("write", fmt.Sprintf("failed to write %s", path), err)
	}

	log := logger.ForSink()
	event := log.Info().Str("path", path).Int("records", len(records))
	if mean, ok := meanRating(records); ok {
		event = event.Str("mean_rating", strconv.FormatFloat(mean, 'f', 2, 64))
	}
	event.Msg("Artifact written")

	return nil
}

// meanRating averages ratings across records, excluding the unknown
// sentinel. Returns false when no record carries a known rating.
func meanRating(records []scraper.Record) (float64, bool) {
	var sum float64
	var n int
	for _, r := range records {
		if r.Rating == scraper.RatingUnknown {
			continue
		}
		value, err := strconv.ParseFloat(r.Rating, 64)
		if err != nil {
			continue
		}
		sum += value
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
