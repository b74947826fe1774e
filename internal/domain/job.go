package domain

import (
	"slices"
	"strings"
)

// Field names one of the eight extracted shipment fields.
type Field string

const (
	FieldCollectionAddress  Field = "collection_address"
	FieldDeliveryAddress    Field = "delivery_address"
	FieldPrice              Field = "price"
	FieldPostcodeCollection Field = "postcode_collection"
	FieldPostcodeDelivery   Field = "postcode_delivery"
	FieldVehicleDetails     Field = "vehicle_details"
	FieldContactInfo        Field = "contact_info"
	FieldNotes              Field = "notes"
)

// Fields lists every scored field in canonical order.
var Fields = []Field{
	FieldCollectionAddress,
	FieldDeliveryAddress,
	FieldPrice,
	FieldPostcodeCollection,
	FieldPostcodeDelivery,
	FieldVehicleDetails,
	FieldContactInfo,
	FieldNotes,
}

// Quality is the parsing quality label reported by the text oracle.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// ParseQuality maps free text onto a known quality label. Unknown values are low.
func ParseQuality(s string) Quality {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityHigh, QualityMedium, QualityLow:
		return q
	default:
		return QualityLow
	}
}

// Rating is the coarse accuracy label of an extraction.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// StructuredJob is the confidence-scored extraction of a free-text job description.
type StructuredJob struct {
	CollectionAddress  string        `json:"collection_address"`
	DeliveryAddress    string        `json:"delivery_address"`
	Price              float64       `json:"price"`
	PostcodeCollection string        `json:"postcode_collection"`
	PostcodeDelivery   string        `json:"postcode_delivery"`
	VehicleDetails     string        `json:"vehicle_details"`
	ContactInfo        string        `json:"contact_info"`
	Notes              string        `json:"notes"`
	ConfidenceScores   map[Field]int `json:"confidence_scores"`
	OverallConfidence  float64       `json:"overall_confidence"`
	ParsingQuality     Quality       `json:"parsing_quality"`
	MissingFields      []string      `json:"missing_fields"`
	UncertainFields    []string      `json:"uncertain_fields"`
	AccuracyRating     Rating        `json:"accuracy_rating"`
}

// Confidence returns the score of the field, 0 when absent.
func (s *StructuredJob) Confidence(f Field) int {
	if s.ConfidenceScores == nil {
		return 0
	}
	return s.ConfidenceScores[f]
}

// SetConfidence stores the score of the field.
func (s *StructuredJob) SetConfidence(f Field, score int) {
	if s.ConfidenceScores == nil {
		s.ConfidenceScores = make(map[Field]int, len(Fields))
	}
	s.ConfidenceScores[f] = score
}

// Clone returns a deep copy so cached values cannot be changed through the caller's copy.
func (s StructuredJob) Clone() StructuredJob {
	out := s
	if s.ConfidenceScores != nil {
		out.ConfidenceScores = make(map[Field]int, len(s.ConfidenceScores))
		for k, v := range s.ConfidenceScores {
			out.ConfidenceScores[k] = v
		}
	}
	out.MissingFields = slices.Clone(s.MissingFields)
	out.UncertainFields = slices.Clone(s.UncertainFields)
	return out
}

// Job is the persisted form of a structured job.
type Job struct {
	ID        int64  `json:"id"`
	DayNumber int    `json:"day_number"`
	JobNumber int    `json:"job_number"`
	RawText   string `json:"raw_text"`
	StructuredJob
}
