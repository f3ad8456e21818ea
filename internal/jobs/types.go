// Package jobs holds the domain types and pure matching logic for the
// job-alert pipeline: the scraped posting record, geographic and salary
// filters, and keyword-based fallback scoring.
package jobs

// Posting is one scraped job listing. Built by the scraper, enriched with a
// parsed salary and a CV relevance score before filtering, and immutable once
// it has been handed to delivery.
type Posting struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	JobType  string `json:"job_type,omitempty"`
	URL      string `json:"url"`

	// Coordinates inherit the search center when the source provides no
	// per-listing geocoding.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Raw salary snippet as scraped; parsed into at most one of the two
	// numeric fields below. nil means the listing carries no salary data.
	SalaryText   string   `json:"salary_text,omitempty"`
	SalaryHourly *float64 `json:"salary_hourly,omitempty"`
	SalaryYearly *float64 `json:"salary_yearly,omitempty"`

	CVScore       float64  `json:"cv_score"`
	CompanyRating *float64 `json:"company_rating,omitempty"`
}

// Coord is a latitude/longitude pair in degrees.
type Coord struct {
	Lat float64
	Lon float64
}

// Chunk splits postings into batches of at most size, preserving order.
// A 13-element slice with size 5 yields groups of 5, 5 and 3.
func Chunk(postings []Posting, size int) [][]Posting {
	if size <= 0 || len(postings) == 0 {
		return nil
	}
	batches := make([][]Posting, 0, (len(postings)+size-1)/size)
	for start := 0; start < len(postings); start += size {
		end := start + size
		if end > len(postings) {
			end = len(postings)
		}
		batches = append(batches, postings[start:end])
	}
	return batches
}
