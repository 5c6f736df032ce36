package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"mangaworker/helpers"
)

// Field extractors. Each maps a page snapshot to one field and reports
// whether anything usable was found. Internal failures (unparseable HTML,
// missing elements) degrade to not-found and never propagate.

var ratingPattern = regexp.MustCompile(`\d+\.\d+`)

// ExtractFields runs every extractor against one rendered detail page.
func ExtractFields(snap *Snapshot) Fields {
	title, _ := ExtractTitle(snap)
	desc, _ := ExtractDescription(snap)
	year, _ := ExtractYear(snap.HTML)
	rating, ratingFound := ExtractRating(snap)
	cover, _ := ExtractCover(snap)

	return Fields{
		Title:       title,
		Description: desc,
		Year:        year,
		Rating:      rating,
		RatingFound: ratingFound,
		CoverURL:    cover,
	}
}

// ExtractTitle reads the first top-level heading, falling back to the
// document title with the site name split off.
func ExtractTitle(snap *Snapshot) (string, bool) {
	doc, err := snap.Doc()
	if err != nil {
		return "", false
	}

	h1 := doc.Find("h1").First()
	if h1.Length() > 0 {
		if text := strings.TrimSpace(h1.Text()); text != "" {
			return text, true
		}
	}

	docTitle := doc.Find("title").First().Text()
	first, err := helpers.GetSplitPart(docTitle, TitleSeparator, 0)
	if err != nil {
		return "", false
	}
	if text := strings.TrimSpace(first); text != "" {
		return text, true
	}
	return "", false
}

// ExtractDescription scans paragraphs inside the marked description
// containers in document order and returns the first one long enough to be
// a real synopsis, truncated to the storage cap. There is deliberately no
// wider fallback: pulling unrelated page text pollutes descriptions with
// boilerplate.
func ExtractDescription(snap *Snapshot) (string, bool) {
	doc, err := snap.Doc()
	if err != nil {
		return "", false
	}

	var found string
	doc.Find(DescriptionSelector).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		container.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			runes := []rune(text)
			if len(runes) > DescriptionMinRunes {
				if len(runes) > DescriptionMaxRunes {
					text = string(runes[:DescriptionMaxRunes])
				}
				found = text
				return false
			}
			return true
		})
		return found == ""
	})

	if found == "" {
		return "", false
	}
	return found, true
}

// ExtractYear parses the raw HTML independently of the live snapshot
// document and reads the text of the first anchor pointing at the
// publication-year filter. Anything but exactly four digits is rejected.
func ExtractYear(rawHTML string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", false
	}

	var yearText string
	var matched bool
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, YearHrefMarker) {
			return true
		}
		yearText = strings.TrimSpace(a.Text())
		matched = true
		return false
	})

	if !matched || len(yearText) != 4 {
		return "", false
	}
	for _, r := range yearText {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return yearText, true
}

// ExtractRating locates the statistics block by its heading, walks up two
// ancestor levels to the enclosing container and scans it for the element
// labeled with the recent-rating caption. The first decimal number inside
// that element wins if it falls within the valid score range. Not-found is
// an explicit result; the serialized sentinel is applied at assembly.
func ExtractRating(snap *Snapshot) (string, bool) {
	doc, err := snap.Doc()
	if err != nil {
		return "", false
	}

	var rating string
	doc.Find("h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !strings.Contains(heading.Text(), StatsHeading) {
			return true
		}

		container := heading.Parent().Parent()
		container.Find("*").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if !strings.Contains(ownText(el), RatingLabel) {
				return true
			}

			match := ratingPattern.FindString(el.Text())
			if match == "" {
				return true
			}
			value, err := strconv.ParseFloat(match, 64)
			if err != nil || value < 0.0 || value > 10.0 {
				return true
			}
			rating = match
			return false
		})
		return rating == ""
	})

	if rating == "" {
		return "", false
	}
	return rating, true
}

// ExtractCover returns the src of the marked cover image element.
func ExtractCover(snap *Snapshot) (string, bool) {
	doc, err := snap.Doc()
	if err != nil {
		return "", false
	}

	src, ok := doc.Find(CoverSelector).First().Attr("src")
	if !ok || src == "" {
		return "", false
	}
	return src, true
}

// ownText concatenates the direct text nodes of a selection, excluding
// descendant elements. Matching on it keeps label lookups from latching
// onto every ancestor of the labeled node.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				b.WriteString(child.Data)
			}
		}
	}
	return b.String()
}
