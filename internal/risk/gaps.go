package risk

import (
	"math"
	"time"

	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Weekend Gap Statistics
// =============================================================================

const (
	// minGapBucketSamples: below this, the expiry/normal split falls back to
	// the pooled sample.
	minGapBucketSamples = 5

	// Gap risk bands on the 90th-percentile absolute gap.
	gapHighThreshold     = 0.015
	gapModerateThreshold = 0.008
)

// WeekendGaps computes the historical Friday-close-to-next-open gap
// distribution. Monthly-expiry weeks (the week of the month's last
// Thursday) carry systematically different gap risk, so percentiles are
// computed per bucket when enough samples exist, falling back to the pooled
// distribution otherwise.
func WeekendGaps(bars []contracts.PriceBar, asOf time.Time) contracts.WeekendGapStats {
	var expiry, normal []float64
	for i := 0; i+1 < len(bars); i++ {
		if bars[i].Date.Weekday() != time.Friday || bars[i].Close == 0 {
			continue
		}
		gap := math.Abs((bars[i+1].Open - bars[i].Close) / bars[i].Close)
		if isExpiryFriday(bars[i].Date) {
			expiry = append(expiry, gap)
		} else {
			normal = append(normal, gap)
		}
	}

	isExpiry := isExpiryFriday(nextFriday(asOf))

	var sample []float64
	weekType := "MIXED"
	switch {
	case isExpiry && len(expiry) > minGapBucketSamples:
		sample, weekType = expiry, "EXPIRY"
	case !isExpiry && len(normal) > minGapBucketSamples:
		sample, weekType = normal, "NORMAL"
	default:
		sample = append(append([]float64{}, expiry...), normal...)
	}

	stats := contracts.WeekendGapStats{
		WeekType:     weekType,
		IsExpiryWeek: isExpiry,
		SampleSize:   len(sample),
		RiskLevel:    contracts.GapRiskLow,
	}
	if len(sample) == 0 {
		return stats
	}

	sorted := SortedCopy(sample)
	stats.P50 = Percentile(sorted, 50)
	stats.P75 = Percentile(sorted, 75)
	stats.P90 = Percentile(sorted, 90)
	switch {
	case stats.P90 > gapHighThreshold:
		stats.RiskLevel = contracts.GapRiskHigh
	case stats.P90 > gapModerateThreshold:
		stats.RiskLevel = contracts.GapRiskModerate
	}
	return stats
}

// isExpiryFriday: the Friday directly after the month's last Thursday,
// i.e. the Friday of the monthly expiry week.
func isExpiryFriday(friday time.Time) bool {
	if friday.Weekday() != time.Friday {
		return false
	}
	thursday := friday.AddDate(0, 0, -1)
	return sameDay(thursday, lastThursday(thursday.Year(), thursday.Month()))
}

// lastThursday of the given month.
func lastThursday(year int, month time.Month) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// nextFriday on or after d.
func nextFriday(d time.Time) time.Time {
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
