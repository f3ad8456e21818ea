// Package scraper fetches and parses paginated job search results from an
// Indeed-style job board. Scraping is best effort: a failed page fetch ends
// the run with whatever was collected, a bad card is skipped, and both are
// logged rather than returned.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_jobbot/internal/httpx"
	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

const (
	defaultBaseURL = "https://uk.indeed.com/jobs"

	// pageStep is the result offset increment between pages.
	pageStep = 10
)

// Scraper paginates a job board search endpoint and parses listing cards.
type Scraper struct {
	baseURL string
	viewURL string // absolute prefix for relative listing links
	center  jobs.Coord
	client  *http.Client
	limiter *rate.Limiter
}

// Options configure New. Zero values fall back to the UK Indeed endpoint and
// one page fetch per second.
type Options struct {
	BaseURL     string
	Center      jobs.Coord
	PagesPerSec float64
}

// New constructs a Scraper with a shared HTTP client.
func New(opts Options) *Scraper {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	view := base
	if u, err := url.Parse(base); err == nil {
		view = u.Scheme + "://" + u.Host
	}
	pps := opts.PagesPerSec
	if pps <= 0 {
		pps = 1
	}
	return &Scraper{
		baseURL: base,
		viewURL: view,
		center:  opts.Center,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(pps), 1),
	}
}

// Scrape collects up to maxResults postings for the query around location.
// Pagination stops when a page yields no cards or the cap is reached. A page
// fetch failure aborts the run and returns the partial result; that policy is
// deliberate and surfaced through the log, not an error value.
func (s *Scraper) Scrape(ctx context.Context, query, location string, radiusMiles, maxResults int) []jobs.Posting {
	var collected []jobs.Posting

	for start := 0; len(collected) < maxResults; start += pageStep {
		if err := s.limiter.Wait(ctx); err != nil {
			slog.Warn("scraper: cancelled between pages", slog.Any("error", err))
			return collected
		}

		body, err := s.fetchPage(ctx, query, location, radiusMiles, start)
		if err != nil {
			slog.Error("scraper: page fetch failed, returning partial results",
				slog.Int("offset", start),
				slog.Int("collected", len(collected)),
				slog.Any("error", err))
			return collected
		}

		cards := s.parsePage(body)
		if len(cards) == 0 {
			slog.Debug("scraper: empty page, end of results", slog.Int("offset", start))
			break
		}

		for _, job := range cards {
			collected = append(collected, job)
			if len(collected) >= maxResults {
				break
			}
		}
	}

	slog.Info("scraper: scrape complete",
		slog.String("query", query),
		slog.Int("jobs", len(collected)))
	return collected
}

// fetchPage GETs one result page starting at the given offset.
func (s *Scraper) fetchPage(ctx context.Context, query, location string, radiusMiles, start int) ([]byte, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("l", location)
	params.Set("radius", strconv.Itoa(radiusMiles))
	params.Set("jt", "parttime")
	params.Set("sort", "date")
	params.Set("start", strconv.Itoa(start))

	reqURL := s.baseURL + "?" + params.Encode()

	resp, err := httpx.RetryHTTP(ctx, httpx.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", httpx.UserAgentChrome)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
		return s.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// parsePage extracts postings from one result page. Malformed cards are
// skipped, never fatal to the page.
func (s *Scraper) parsePage(body []byte) []jobs.Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Warn("scraper: html parse failed", slog.Any("error", err))
		return nil
	}

	var postings []jobs.Posting
	doc.Find("div.job_seen_beacon").Each(func(_ int, card *goquery.Selection) {
		job, err := s.parseCard(card)
		if err != nil {
			slog.Debug("scraper: skipping card", slog.Any("error", err))
			return
		}
		postings = append(postings, job)
	})
	return postings
}
