package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsReflectCrawlOutcome runs a crawl with one broken candidate and
// asserts the registry holds what the endpoint would expose.
func TestMetricsReflectCrawlOutcome(t *testing.T) {
	urls := candidateURLs(3)
	renderer := &fakeRenderer{
		pages: map[string]string{
			urls[0]: detailFixture("First"),
			urls[2]: detailFixture("Third"),
		},
		failures: map[string]error{
			urls[1]: errors.New("render backend dropped the session"),
		},
	}

	m := NewMetrics()
	o := NewOrchestrator(renderer, m, CrawlConfig{Target: 3, ProgressEvery: 10})
	o.sleep = func(time.Duration) {}

	records := o.Crawl(context.Background(), urls)
	require.Len(t, records, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemErrors.WithLabelValues("render")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesRendered.WithLabelValues("detail")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["pipeline_records_extracted_total"])
	assert.True(t, names["pipeline_item_errors_total"])
	assert.True(t, names["pipeline_render_duration_seconds"])
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.IncPageRendered("listing")
	m.ObserveRender(time.Second)
	m.IncRecord()
	m.IncItemError("render")
	m.SetCandidates(5)
}
