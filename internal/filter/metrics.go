package filter

import (
	"math"
	"strconv"
)

// Metrics summarises a filtered view against the full data set.
type Metrics struct {
	Total       int     `json:"total"`
	Matched     int     `json:"matched"`
	Percent     float64 `json:"percent"`
	Shortlisted int     `json:"shortlisted"`
}

// NewMetrics computes the match percentage, 0 for an empty data set and
// always within [0, 100].
func NewMetrics(matched, total int) Metrics {
	if matched < 0 {
		matched = 0
	}
	if total < 0 {
		total = 0
	}
	if matched > total {
		matched = total
	}

	var pct float64
	if total > 0 {
		pct = 100 * float64(matched) / float64(total)
	}
	return Metrics{
		Total:   total,
		Matched: matched,
		Percent: math.Min(100, math.Max(0, pct)),
	}
}

// PercentLabel formats the percentage with one decimal place.
func (m Metrics) PercentLabel() string {
	return strconv.FormatFloat(m.Percent, 'f', 1, 64) + "%"
}

// CompanyNoun returns "company" or "companies" for n.
func CompanyNoun(n int) string {
	if n == 1 {
		return "company"
	}
	return "companies"
}
