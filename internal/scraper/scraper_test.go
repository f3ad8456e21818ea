package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

func cardHTML(id, title, company, location, salary, jobType string) string {
	idAttr := ""
	if id != "" {
		idAttr = fmt.Sprintf(` data-jk=%q`, id)
	}
	return fmt.Sprintf(`
	<div class="job_seen_beacon"%s>
		<h2 class="jobTitle"><a class="jcs-JobTitle" href="/viewjob?jk=%s"><span>%s</span></a></h2>
		<span class="companyName">%s</span>
		<div class="companyLocation">%s</div>
		<div class="salary-snippet">%s</div>
		<div class="jobCardReqItem"><span>%s</span></div>
	</div>`, idAttr, id, title, company, location, salary, jobType)
}

func pageHTML(cards ...string) string {
	return "<html><body><div id='results'>" + strings.Join(cards, "\n") + "</div></body></html>"
}

func newTestScraper(serverURL string) *Scraper {
	return New(Options{
		BaseURL:     serverURL + "/jobs",
		Center:      jobs.Coord{Lat: 53.4975, Lon: -2.5196},
		PagesPerSec: 1000, // no pacing in tests
	})
}

func TestScrape_PaginatesUntilEmptyPage(t *testing.T) {
	pages := map[string]string{
		"0": pageHTML(
			cardHTML("aaa", "Shop Assistant", "Acme", "Leigh WN7", "£11.50 an hour", "Part-time"),
			cardHTML("bbb", "Barista", "Beans", "Leigh", "", "Part-time"),
		),
		"10": pageHTML(
			cardHTML("ccc", "Cleaner", "Sparkle", "Atherton", "£18,000 a year", "Part-time"),
		),
		"20": pageHTML(),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Query().Get("start")])
	}))
	defer srv.Close()

	got := newTestScraper(srv.URL).Scrape(context.Background(), "part time", "Leigh", 5, 50)
	if len(got) != 3 {
		t.Fatalf("got %d postings, want 3", len(got))
	}

	first := got[0]
	if first.ID != "aaa" || first.Title != "Shop Assistant" || first.Company != "Acme" {
		t.Errorf("first card parsed wrong: %+v", first)
	}
	if first.SalaryHourly == nil || *first.SalaryHourly != 11.50 {
		t.Errorf("hourly salary not parsed: %+v", first.SalaryHourly)
	}
	if !strings.Contains(first.URL, "/viewjob?jk=aaa") {
		t.Errorf("URL not absolute: %q", first.URL)
	}
	if first.Latitude != 53.4975 {
		t.Errorf("posting did not inherit center latitude: %v", first.Latitude)
	}

	if got[1].SalaryHourly != nil || got[1].SalaryYearly != nil {
		t.Error("missing salary should stay absent, not zero")
	}
	if got[2].SalaryYearly == nil || *got[2].SalaryYearly != 18000 {
		t.Errorf("yearly salary not parsed: %+v", got[2].SalaryYearly)
	}
}

func TestScrape_StopsAtMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page is full; only the cap can stop the scrape.
		var cards []string
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("%s-%d", r.URL.Query().Get("start"), i)
			cards = append(cards, cardHTML(id, "Job", "Co", "Leigh", "", "Part-time"))
		}
		fmt.Fprint(w, pageHTML(cards...))
	}))
	defer srv.Close()

	got := newTestScraper(srv.URL).Scrape(context.Background(), "part time", "Leigh", 5, 13)
	if len(got) != 13 {
		t.Errorf("got %d postings, want 13", len(got))
	}
}

func TestScrape_CardWithoutIDDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			fmt.Fprint(w, pageHTML())
			return
		}
		fmt.Fprint(w, pageHTML(
			cardHTML("", "No ID Job", "Ghost", "Leigh", "", "Part-time"),
			cardHTML("keep", "Real Job", "Solid", "Leigh", "", "Part-time"),
		))
	}))
	defer srv.Close()

	got := newTestScraper(srv.URL).Scrape(context.Background(), "part time", "Leigh", 5, 50)
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("expected only the identifiable card, got %+v", got)
	}
}

func TestScrape_FetchFailureReturnsPartial(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("start") == "0" {
			fmt.Fprint(w, pageHTML(cardHTML("one", "First", "Co", "Leigh", "", "Part-time")))
			return
		}
		// Non-retryable client error on the second page.
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	got := newTestScraper(srv.URL).Scrape(context.Background(), "part time", "Leigh", 5, 50)
	if len(got) != 1 || got[0].ID != "one" {
		t.Errorf("expected partial result from first page, got %+v", got)
	}
}
