package jobs

import (
	"math"
	"strings"
)

// earthRadiusMiles is the mean Earth radius used by the distance filter.
const earthRadiusMiles = 3958.8

// FilterLimits are the thresholds a posting must clear before delivery.
// Values come from config and are fixed for the process lifetime.
type FilterLimits struct {
	RadiusMiles      float64
	MinHourlyWage    float64
	MinYearlyWage    float64
	NoSalaryCVCutoff float64 // stricter CV score bar when a listing has no salary data
	MinCompanyRating float64
}

// Haversine returns the great-circle distance between a and b in miles.
func Haversine(a, b Coord) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// IsPartTime reports whether the free-text employment type carries a
// part-time marker. Empty job types fail.
func IsPartTime(jobType string) bool {
	if jobType == "" {
		return false
	}
	lower := strings.ToLower(jobType)
	return strings.Contains(lower, "part-time") || strings.Contains(lower, "part time")
}

// Passes applies the delivery filters in order, short-circuiting on the first
// failure: distance, employment type, salary floor, company rating. Pure and
// deterministic; cvScore is the posting's relevance score against the resume.
//
// Cheapest checks run first; the salary branch has the most edge cases and
// comes after geography and type.
func Passes(job Posting, cvScore float64, center Coord, limits FilterLimits) bool {
	if Haversine(Coord{job.Latitude, job.Longitude}, center) > limits.RadiusMiles {
		return false
	}
	if !IsPartTime(job.JobType) {
		return false
	}
	if !salaryMeetsFloor(job, cvScore, limits) {
		return false
	}
	// Unknown rating passes: absence is not evidence against the company.
	if job.CompanyRating != nil && *job.CompanyRating < limits.MinCompanyRating {
		return false
	}
	return true
}

// salaryMeetsFloor checks the hourly floor when an hourly figure is present,
// else the yearly floor. Listings with no salary data at all need a CV score
// at or above the no-salary cutoff as compensating evidence of fit.
func salaryMeetsFloor(job Posting, cvScore float64, limits FilterLimits) bool {
	if job.SalaryHourly != nil {
		return *job.SalaryHourly >= limits.MinHourlyWage
	}
	if job.SalaryYearly != nil {
		return *job.SalaryYearly >= limits.MinYearlyWage
	}
	return cvScore >= limits.NoSalaryCVCutoff
}
