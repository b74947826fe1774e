package extract

import (
	"regexp"
	"strconv"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/postcode"
)

var (
	currencyPricePattern = regexp.MustCompile(`[£$](\d+\.?\d*)`)
	barePricePattern     = regexp.MustCompile(`[£$]?(\d+\.?\d*)`)
)

const (
	fallbackPriceConfidence    = 60
	fallbackPostcodeConfidence = 50
	fallbackNotesConfidence    = 80
)

// Fallback extracts what plain pattern matching can find in raw. It is deterministic and
// never talks to an oracle: price and postcodes are matched, the whole text becomes notes.
func Fallback(raw string) domain.StructuredJob {
	job := domain.StructuredJob{
		Notes:          raw,
		ParsingQuality: domain.QualityLow,
		MissingFields: []string{
			string(domain.FieldCollectionAddress),
			string(domain.FieldDeliveryAddress),
			string(domain.FieldVehicleDetails),
			string(domain.FieldContactInfo),
		},
		UncertainFields: []string{
			string(domain.FieldPrice),
			string(domain.FieldPostcodeCollection),
			string(domain.FieldPostcodeDelivery),
		},
	}

	for _, field := range domain.Fields {
		job.SetConfidence(field, 0)
	}
	job.SetConfidence(domain.FieldNotes, fallbackNotesConfidence)

	if price, ok := findPrice(raw); ok {
		job.Price = price
		job.SetConfidence(domain.FieldPrice, fallbackPriceConfidence)
	}

	codes := postcode.FindAll(raw)
	if len(codes) > 0 {
		job.PostcodeCollection = codes[0]
		job.SetConfidence(domain.FieldPostcodeCollection, fallbackPostcodeConfidence)
	}
	if len(codes) > 1 {
		job.PostcodeDelivery = codes[1]
		job.SetConfidence(domain.FieldPostcodeDelivery, fallbackPostcodeConfidence)
	}

	finalize(&job)
	return job
}

// findPrice prefers an amount carrying a currency sign and otherwise takes the first number
// in the text, which is often a house number.
func findPrice(text string) (float64, bool) {
	match := currencyPricePattern.FindStringSubmatch(text)
	if match == nil {
		match = barePricePattern.FindStringSubmatch(text)
	}
	if match == nil {
		return 0, false
	}

	price, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
