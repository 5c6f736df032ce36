package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Solo Leveling", CleanTitle("Читать Solo Leveling"))
	assert.Equal(t, "Solo Leveling", CleanTitle("  Solo Leveling  "))
	assert.Equal(t, "Омнискэнт Ридер", CleanTitle("Читать Омнискэнт Ридер "))

	// Idempotence: cleaning a clean title changes nothing.
	once := CleanTitle("Читать Solo Leveling")
	assert.Equal(t, once, CleanTitle(once))
}

func TestAssemble(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	fields := Fields{
		Title:       "Читать Solo Leveling",
		Description: "Десять лет назад врата открылись.",
		Year:        "2018",
		Rating:      "9.3",
		RatingFound: true,
		CoverURL:    "https://img.example.com/cover.jpg",
	}

	record := Assemble(fields, "https://remanga.org/manga/solo-leveling/main", now)

	assert.Equal(t, "Solo Leveling", record.Title)
	assert.Equal(t, "2018", record.Year)
	assert.Equal(t, "9.3", record.Rating)
	assert.Equal(t, "https://remanga.org/manga/solo-leveling/main", record.SourceURL)
	assert.Equal(t, "2026-03-14 15:09:26", record.ScrapedAt)
}

func TestAssembleDegradesMissingFields(t *testing.T) {
	record := Assemble(Fields{}, "https://remanga.org/manga/unknown/main", time.Now())

	assert.Equal(t, "", record.Title)
	assert.Equal(t, "", record.Description)
	assert.Equal(t, "", record.Year)
	assert.Equal(t, RatingUnknown, record.Rating)
	assert.Equal(t, "", record.CoverURL)
	assert.NotEmpty(t, record.ScrapedAt)
}
