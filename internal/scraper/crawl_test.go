package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailFixture(title string) string {
	return fmt.Sprintf(`<html><head><title>Читать %s — Манга</title></head><body>
		<h1>Читать %s</h1>
		<div><div><h3>Статистика</h3><span>Рейтинг за последнее время: 8.1</span></div></div>
	</body></html>`, title, title)
}

func newTestOrchestrator(renderer Renderer, target int) (*Orchestrator, *int) {
	o := NewOrchestrator(renderer, nil, CrawlConfig{
		Target:        target,
		PageSettle:    time.Millisecond,
		DelayMin:      time.Millisecond,
		DelayMax:      3 * time.Millisecond,
		ProgressEvery: 10,
	})
	delays := 0
	o.sleep = func(time.Duration) { delays++ }
	return o, &delays
}

func candidateURLs(n int) []string {
	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		urls = append(urls, fmt.Sprintf("https://remanga.org/manga/title-%d/main", i))
	}
	return urls
}

func TestCrawlStopsAtTarget(t *testing.T) {
	urls := candidateURLs(5)
	pages := make(map[string]string)
	for i, u := range urls {
		pages[u] = detailFixture(fmt.Sprintf("Title %d", i))
	}
	renderer := &fakeRenderer{pages: pages}

	o, delays := newTestOrchestrator(renderer, 3)
	records := o.Crawl(context.Background(), urls)

	require.Len(t, records, 3)
	assert.Equal(t, "Title 0", records[0].Title)
	assert.Equal(t, "Title 2", records[2].Title)

	// Two candidates were never rendered; the delay ran once per attempt.
	assert.Len(t, renderer.requests, 3)
	assert.Equal(t, 3, *delays)
}

func TestCrawlIsolatesItemFailures(t *testing.T) {
	urls := candidateURLs(4)
	pages := make(map[string]string)
	for i, u := range urls {
		pages[u] = detailFixture(fmt.Sprintf("Title %d", i))
	}
	renderer := &fakeRenderer{
		pages:    pages,
		failures: map[string]error{urls[1]: errors.New("render crashed")},
	}

	o, delays := newTestOrchestrator(renderer, 10)
	records := o.Crawl(context.Background(), urls)

	// One bad page skips that item only; output order follows successful
	// extraction order.
	require.Len(t, records, 3)
	assert.Equal(t, "Title 0", records[0].Title)
	assert.Equal(t, "Title 2", records[1].Title)
	assert.Equal(t, "Title 3", records[2].Title)

	// The inter-item delay is unconditional, failures included.
	assert.Equal(t, 4, *delays)
}

func TestCrawlRecordShape(t *testing.T) {
	url := "https://remanga.org/manga/solo-leveling/main"
	renderer := &fakeRenderer{pages: map[string]string{url: detailFixture("Solo Leveling")}}

	o, _ := newTestOrchestrator(renderer, 1)
	records := o.Crawl(context.Background(), []string{url})

	require.Len(t, records, 1)
	assert.Equal(t, "Solo Leveling", records[0].Title)
	assert.Equal(t, "8.1", records[0].Rating)
	assert.Equal(t, url, records[0].SourceURL)
	assert.NotEmpty(t, records[0].ScrapedAt)
}

func TestCrawlSentinelRatingOnBrokenStats(t *testing.T) {
	url := "https://remanga.org/manga/no-stats/main"
	renderer := &fakeRenderer{pages: map[string]string{
		url: `<html><body><h1>Читать Без статистики</h1></body></html>`,
	}}

	o, _ := newTestOrchestrator(renderer, 1)
	records := o.Crawl(context.Background(), []string{url})

	require.Len(t, records, 1)
	assert.Equal(t, RatingUnknown, records[0].Rating)
}

func TestCrawlStopsOnCancelledContext(t *testing.T) {
	urls := candidateURLs(3)
	renderer := &fakeRenderer{pages: map[string]string{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, delays := newTestOrchestrator(renderer, 3)
	records := o.Crawl(ctx, urls)

	assert.Empty(t, records)
	assert.Empty(t, renderer.requests)
	assert.Equal(t, 0, *delays)
}

func TestCrawlWithZeroProgressInterval(t *testing.T) {
	urls := candidateURLs(2)
	pages := make(map[string]string)
	for i, u := range urls {
		pages[u] = detailFixture(fmt.Sprintf("Title %d", i))
	}
	renderer := &fakeRenderer{pages: pages}

	// A caller constructing the orchestrator directly may leave the
	// progress interval unset; the crawl must still complete.
	o := NewOrchestrator(renderer, nil, CrawlConfig{Target: 2})
	o.sleep = func(time.Duration) {}

	records := o.Crawl(context.Background(), urls)
	require.Len(t, records, 2)
}

func TestCrawlSkipsPageWithoutTitle(t *testing.T) {
	urls := candidateURLs(3)
	pages := map[string]string{
		urls[0]: detailFixture("First"),
		urls[1]: `<html><head></head><body><p>страница не найдена</p></body></html>`,
		urls[2]: detailFixture("Third"),
	}
	renderer := &fakeRenderer{pages: pages}

	o, delays := newTestOrchestrator(renderer, 3)
	records := o.Crawl(context.Background(), urls)

	require.Len(t, records, 2)
	assert.Equal(t, "First", records[0].Title)
	assert.Equal(t, "Third", records[1].Title)
	assert.Equal(t, 3, *delays)
}
