package risk

import (
	"math"
	"time"

	"github.com/wonny/vantage/internal/contracts"
)

// =============================================================================
// Options-Derived Estimates (implied-vol proxy = volatility index)
// =============================================================================

const calendarDaysPerYear = 365.0

// ATMThetaPerDay approximates the Black-Scholes theta of an at-the-money
// option per calendar day, with the volatility index as the implied-vol
// proxy and zero rates:
//
//	theta = -S * sigma * phi(d1) / (2 * sqrt(T)),  d1 = sigma*sqrt(T)/2
//
// Returned per day (annual theta / 365), negative: the daily premium decay.
func ATMThetaPerDay(spot, sigma float64, daysToExpiry int) float64 {
	if spot <= 0 || sigma <= 0 || daysToExpiry <= 0 {
		return 0
	}
	T := float64(daysToExpiry) / calendarDaysPerYear
	d1 := sigma * math.Sqrt(T) / 2
	annualTheta := -spot * sigma * NormPDF(d1) / (2 * math.Sqrt(T))
	return annualTheta / calendarDaysPerYear
}

// DaysToMonthlyExpiry returns the calendar days from asOf to the nearest
// monthly expiry (the last Thursday of the month), never less than 1. When
// the current month's expiry has passed, the next month's is used.
func DaysToMonthlyExpiry(asOf time.Time) int {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	expiry := lastThursday(day.Year(), day.Month())
	if expiry.Before(day) {
		next := day.AddDate(0, 1, 0)
		expiry = lastThursday(next.Year(), next.Month())
	}
	days := int(expiry.Sub(day).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// MaxPain approximates the max-pain anchor as the volume-weighted average
// close over the trailing bars: the price where the most recent traded
// volume is concentrated.
func MaxPain(bars []contracts.PriceBar) float64 {
	var volSum, pvSum float64
	for _, bar := range bars {
		v := float64(bar.Volume)
		volSum += v
		pvSum += bar.Close * v
	}
	if volSum == 0 {
		return 0
	}
	return pvSum / volSum
}

// PivotS1 returns the classic first support level from the prior bar:
// S1 = 2*P - H with P = (H+L+C)/3.
func PivotS1(prior contracts.PriceBar) float64 {
	pivot := (prior.High + prior.Low + prior.Close) / 3
	return 2*pivot - prior.High
}

// GEXLevelProxy is a rough dealer-positioning estimate from signed volume:
// the volume-weighted mean of signed daily moves over the window, scaled to
// spot. There is no open-interest data behind it, so callers publish it as
// an explicitly low-confidence reading.
func GEXLevelProxy(bars []contracts.PriceBar) contracts.GEXProxy {
	var signedVol, totalVol float64
	for i := 1; i < len(bars); i++ {
		v := float64(bars[i].Volume)
		totalVol += v
		if bars[i].Close > bars[i-1].Close {
			signedVol += v
		} else if bars[i].Close < bars[i-1].Close {
			signedVol -= v
		}
	}
	proxy := contracts.GEXProxy{Confidence: "LOW"}
	if totalVol > 0 {
		proxy.Level = signedVol / totalVol
	}
	return proxy
}
