package extract

import (
	"math"
	"strings"

	"github.com/spigell/soto-lp/internal/domain"
)

// OverallConfidence is the mean of the eight field scores rounded to one decimal.
func OverallConfidence(job domain.StructuredJob) float64 {
	total := 0
	for _, field := range domain.Fields {
		total += job.Confidence(field)
	}
	mean := float64(total) / float64(len(domain.Fields))
	return math.Round(mean*10) / 10
}

// CriticalMissing counts the empty critical fields: both addresses and a non-positive price.
func CriticalMissing(job domain.StructuredJob) int {
	missing := 0
	if strings.TrimSpace(job.CollectionAddress) == "" {
		missing++
	}
	if strings.TrimSpace(job.DeliveryAddress) == "" {
		missing++
	}
	if job.Price <= 0 {
		missing++
	}
	return missing
}

// RateAccuracy classifies how far the extraction of job can be trusted.
func RateAccuracy(job domain.StructuredJob) domain.Rating {
	return Rate(job.OverallConfidence, CriticalMissing(job), len(job.MissingFields))
}

// Rate applies the rating rules in priority order; the first match wins.
func Rate(overall float64, criticalMissing, missingCount int) domain.Rating {
	switch {
	case overall >= 85 && criticalMissing == 0 && missingCount <= 1:
		return domain.RatingExcellent
	case overall >= 70 && criticalMissing <= 1 && missingCount <= 2:
		return domain.RatingGood
	case overall >= 50 && criticalMissing <= 2:
		return domain.RatingFair
	default:
		return domain.RatingPoor
	}
}

func finalize(job *domain.StructuredJob) {
	job.OverallConfidence = OverallConfidence(*job)
	job.AccuracyRating = RateAccuracy(*job)
}
