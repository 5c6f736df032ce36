package scraper

// Site markers for remanga.org. Markup on the target uses framework-generated
// class names, so extraction keys off semantic tags, data attributes and text
// labels instead of CSS classes.
const (
	// TitlePrefix is the phrase the site prepends to every page title.
	TitlePrefix = "Читать "
	// TitleSeparator splits the document title into title and site name.
	TitleSeparator = "—"
	// StatsHeading marks the statistics block heading.
	StatsHeading = "Статистика"
	// RatingLabel marks the element carrying the recent rating value.
	RatingLabel = "Рейтинг за последнее время:"
	// DescriptionSelector matches the description container.
	DescriptionSelector = `[data-sentry-component="Description"]`
	// CoverSelector matches the optimized cover image element.
	CoverSelector = `img[data-sentry-component="MediaOptimizedImage"]`
	// YearHrefMarker appears in the href of the publication-year filter link.
	YearHrefMarker = "issue_year"
	// LinkMarker appears in every catalog item URL.
	LinkMarker = "/manga/"
	// DetailSuffix marks the canonical detail sub-page of an item.
	DetailSuffix = "/main"
)

const (
	// DescriptionMinRunes rejects short boilerplate paragraphs.
	DescriptionMinRunes = 50
	// DescriptionMaxRunes caps the stored description length.
	DescriptionMaxRunes = 500
	// RatingUnknown is the serialized placeholder for an unparsed rating.
	// It is not a true zero score; downstream consumers must exclude it
	// from aggregates.
	RatingUnknown = "0.0"
)

// ScrapedAtLayout is the timestamp format used in the output artifact.
const ScrapedAtLayout = "2006-01-02 15:04:05"

// Record is one extracted catalog entry. Field order matches the output
// artifact contract.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Year        string `json:"year"`
	Rating      string `json:"rating"`
	CoverURL    string `json:"cover_url"`
	SourceURL   string `json:"url"`
	ScrapedAt   string `json:"scraped_at"`
}

// Fields holds the raw extractor outputs for one detail page before
// assembly. A missing rating is explicit here; the RatingUnknown sentinel
// exists only in the serialized Record.
type Fields struct {
	Title       string
	Description string
	Year        string
	Rating      string
	RatingFound bool
	CoverURL    string
}
