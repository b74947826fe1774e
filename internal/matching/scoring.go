package matching

import (
	"fmt"
	"math"

	"github.com/spigell/soto-lp/internal/domain"
)

const (
	maxPartScore      = 5.0
	pricePerPoint     = 20.0
	milesPerLostPoint = 10.0
)

// PriceScore gives up to 5 points, saturating at a price of 100. Non-positive prices score 0.
func PriceScore(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Min(price/pricePerPoint, maxPartScore)
}

// DistanceScore gives 5 points at zero miles, decaying linearly to 0 at 50 miles and beyond.
func DistanceScore(miles float64) float64 {
	return math.Max(0, maxPartScore-miles/milesPerLostPoint)
}

// Score sums both parts rounded to one decimal. The sum is not capped.
func Score(price, miles float64) float64 {
	return math.Round((PriceScore(price)+DistanceScore(miles))*10) / 10
}

func Reasoning(price, miles float64) string {
	return fmt.Sprintf("Price: £%.2f (%.1f/5), Distance: %.1fmi (%.1f/5)",
		price, PriceScore(price), miles, DistanceScore(miles))
}

// Candidate scores driver for job at the given driving distance.
func Candidate(job domain.Job, driver domain.Driver, miles float64) domain.MatchCandidate {
	return domain.MatchCandidate{
		JobID:         job.ID,
		DriverID:      driver.ID,
		MatchScore:    Score(job.Price, miles),
		DistanceMiles: miles,
		Reasoning:     Reasoning(job.Price, miles),
	}
}
