package scraper

import (
	"strings"
	"time"
)

// CleanTitle strips the site's leading reader phrase and surrounding
// whitespace. Idempotent: cleaning a clean title returns it unchanged.
func CleanTitle(title string) string {
	title = strings.TrimPrefix(title, TitlePrefix)
	return strings.TrimSpace(title)
}

// Assemble combines extractor output into one record. Pure: missing fields
// degrade to their empty or sentinel values, never to an error, so a partly
// broken page still yields a usable record.
func Assemble(fields Fields, sourceURL string, now time.Time) Record {
	rating := RatingUnknown
	if fields.RatingFound {
		rating = fields.Rating
	}

	return Record{
		Title:       CleanTitle(fields.Title),
		Description: fields.Description,
		Year:        fields.Year,
		Rating:      rating,
		CoverURL:    fields.CoverURL,
		SourceURL:   sourceURL,
		ScrapedAt:   now.Format(ScrapedAtLayout),
	}
}
