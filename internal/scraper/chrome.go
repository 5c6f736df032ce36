package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mangaworker/helpers"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
)

// pageFunction runs inside the remote headless-chrome service. It navigates,
// settles, scrolls to trigger lazy loading, optionally waits for a readiness
// selector and returns the rendered HTML. A readiness timeout is reported in
// the result rather than failing the whole call, so the client can map it to
// ErrWaitTimeout.
const pageFunction = `module.exports = async ({ page, context }) => {
	await page.setViewport({ width: 1280, height: 800 });
	await page.setUserAgent(context.userAgent);
	await page.goto(context.url, { waitUntil: 'domcontentloaded', timeout: context.navTimeout });
	await page.waitForTimeout(context.settle);
	for (let i = 1; i <= context.scrollCycles; i++) {
		await page.evaluate((y) => window.scrollTo(0, y), context.scrollStep * i);
		await page.waitForTimeout(context.scrollSettle);
	}
	if (context.waitSelector) {
		try {
			await page.waitForSelector(context.waitSelector, { timeout: context.waitTimeout });
		} catch (e) {
			return { timeout: true, content: await page.content() };
		}
	}
	return { timeout: false, content: await page.content() };
}`

const navTimeout = 45 * time.Second

// ChromeRenderer renders pages through a remote headless-chrome service
// exposing a /function endpoint. One instance corresponds to one rendering
// session per run.
type ChromeRenderer struct {
	addr   string
	client *http.Client
	log    *logger.Logger
}

// NewChromeRenderer connects to the rendering service at addr. An
// unreachable service is a fatal acquisition error: nothing downstream can
// proceed without a renderer.
func NewChromeRenderer(addr string) (*ChromeRenderer, error) {
	client := &http.Client{Timeout: 60 * time.Second}

	resp, err := client.Get(addr)
	if err != nil {
		return nil, pkgerrors.NewRender("acquire", fmt.Sprintf("rendering service unreachable at %s", addr), err)
	}
	resp.Body.Close()

	log := logger.ForRenderer()
	log.Info().Str("addr", addr).Int("status", resp.StatusCode).Msg("Rendering service connected")

	return &ChromeRenderer{
		addr:   addr,
		client: client,
		log:    log,
	}, nil
}

type renderContext struct {
	URL          string `json:"url"`
	UserAgent    string `json:"userAgent"`
	NavTimeout   int64  `json:"navTimeout"`
	Settle       int64  `json:"settle"`
	ScrollCycles int    `json:"scrollCycles"`
	ScrollStepPx int    `json:"scrollStep"`
	ScrollSettle int64  `json:"scrollSettle"`
	WaitSelector string `json:"waitSelector"`
	WaitTimeout  int64  `json:"waitTimeout"`
}

type renderResult struct {
	Timeout bool   `json:"timeout"`
	Content string `json:"content"`
}

// Render executes one page render on the remote service.
func (r *ChromeRenderer) Render(ctx context.Context, req Request) (*Snapshot, error) {
	payload := map[string]interface{}{
		"code": pageFunction,
		"context": renderContext{
			URL:          req.URL,
			UserAgent:    helpers.RandomUserAgent(),
			NavTimeout:   navTimeout.Milliseconds(),
			Settle:       req.Settle.Milliseconds(),
			ScrollCycles: req.ScrollCycles,
			ScrollStepPx: req.ScrollStepPx,
			ScrollSettle: req.ScrollSettle.Milliseconds(),
			WaitSelector: req.WaitSelector,
			WaitTimeout:  req.WaitTimeout.Milliseconds(),
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.addr+"/function", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render request failed for %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render of %s returned status %d", req.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	result, err := decodeRenderBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("render of %s: %w", req.URL, err)
	}

	if result.Timeout {
		return nil, fmt.Errorf("%w: selector %q on %s", ErrWaitTimeout, req.WaitSelector, req.URL)
	}

	r.log.Debug().Str("url", req.URL).Int("bytes", len(result.Content)).Msg("Page rendered")

	return NewSnapshot(req.URL, result.Content), nil
}

// decodeRenderBody handles both response shapes of the service: a JSON
// object with the page function's return value (possibly nested under
// "data") or the raw HTML itself.
func decodeRenderBody(body []byte, contentType string) (*renderResult, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var direct renderResult
		if err := json.Unmarshal(body, &direct); err == nil && direct.Content != "" {
			return &direct, nil
		}

		var wrapped struct {
			Data renderResult `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data.Content != "" {
			return &wrapped.Data, nil
		}
	}

	html, err := helpers.DecodeToUTF8(body, contentType)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(html, "<html") && !strings.Contains(html, "<body") {
		return nil, fmt.Errorf("response does not look like a rendered page (%d bytes)", len(body))
	}
	return &renderResult{Content: html}, nil
}

// Close releases the rendering session.
func (r *ChromeRenderer) Close() error {
	r.client.CloseIdleConnections()
	r.log.Debug().Msg("Rendering session closed")
	return nil
}
