package scraper

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// errNoID marks a card without a listing identifier; such cards cannot be
// deduplicated and are dropped.
var errNoID = errors.New("card has no data-jk id")

// parseCard maps one listing card to a Posting. Optional fields (salary,
// job type) stay absent when missing; there are no placeholder strings for
// numeric data. Coordinates inherit the search center because the board
// exposes no per-listing geocoding.
func (s *Scraper) parseCard(card *goquery.Selection) (jobs.Posting, error) {
	id, ok := card.Attr("data-jk")
	if !ok || id == "" {
		id, _ = card.Find("[data-jk]").First().Attr("data-jk")
	}
	if id == "" {
		return jobs.Posting{}, errNoID
	}

	job := jobs.Posting{
		ID:        id,
		Title:     cardText(card, "h2.jobTitle span"),
		Company:   cardText(card, ".companyName"),
		Location:  cardText(card, ".companyLocation"),
		JobType:   cardText(card, ".jobCardReqItem span"),
		URL:       s.viewURL + "/viewjob?jk=" + id,
		Latitude:  s.center.Lat,
		Longitude: s.center.Lon,
	}
	if job.Title == "" {
		job.Title = cardText(card, "h2.jobTitle")
	}

	job.SalaryText = cardText(card, ".salary-snippet")
	job.SalaryHourly, job.SalaryYearly = jobs.ParseSalary(job.SalaryText)

	if href, ok := card.Find("a.jcs-JobTitle").First().Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "/") {
			job.URL = s.viewURL + href
		} else {
			job.URL = href
		}
	}

	return job, nil
}

// cardText returns the trimmed text of the first match for sel within card.
func cardText(card *goquery.Selection, sel string) string {
	return strings.TrimSpace(card.Find(sel).First().Text())
}
