package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaworker/internal/scraper"
)

func record(title, rating string) scraper.Record {
	return scraper.Record{
		Title:     title,
		Rating:    rating,
		SourceURL: "https://remanga.org/manga/" + title + "/main",
		ScrapedAt: "2026-01-01 00:00:00",
	}
}

func readBack(t *testing.T, path string) []scraper.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []scraper.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestPersistWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "raw_manga.json")

	err := Persist([]scraper.Record{record("solo-leveling", "9.3"), record("tower-of-god", "0.0")}, path)
	require.NoError(t, err)

	records := readBack(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "solo-leveling", records[0].Title)
	assert.Equal(t, "0.0", records[1].Rating)
}

func TestPersistOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_manga.json")

	require.NoError(t, Persist([]scraper.Record{record("a", "1.0"), record("b", "2.0")}, path))
	require.NoError(t, Persist([]scraper.Record{record("c", "3.0")}, path))

	// Only the second snapshot remains readable.
	records := readBack(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "c", records[0].Title)
}

func TestPersistEmptyListIsValidArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_manga.json")

	require.NoError(t, Persist(nil, path))

	records := readBack(t, path)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestMeanRatingExcludesUnknown(t *testing.T) {
	mean, ok := meanRating([]scraper.Record{
		record("a", "8.0"),
		record("b", "0.0"),
		record("c", "9.0"),
	})
	assert.True(t, ok)
	assert.InDelta(t, 8.5, mean, 0.0001)

	_, ok = meanRating([]scraper.Record{record("a", "0.0")})
	assert.False(t, ok)
}
