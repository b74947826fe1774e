package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/postcode"
)

//go:embed schema.json
var payloadSchemaJSON string

var payloadSchema = jsonschema.MustCompileString("payload.schema.json", payloadSchemaJSON)

// Confidence assigned to a postcode recovered from its address.
const recoveredConfidence = 75

type payload struct {
	CollectionAddress  string         `mapstructure:"collection_address"`
	DeliveryAddress    string         `mapstructure:"delivery_address"`
	Price              any            `mapstructure:"price"`
	PostcodeCollection string         `mapstructure:"postcode_collection"`
	PostcodeDelivery   string         `mapstructure:"postcode_delivery"`
	VehicleDetails     string         `mapstructure:"vehicle_details"`
	ContactInfo        string         `mapstructure:"contact_info"`
	Notes              string         `mapstructure:"notes"`
	ConfidenceScores   map[string]any `mapstructure:"confidence_scores"`
	ParsingQuality     string         `mapstructure:"parsing_quality"`
	MissingFields      []string       `mapstructure:"missing_fields"`
	UncertainFields    []string       `mapstructure:"uncertain_fields"`
}

func parsePayload(raw string) (domain.StructuredJob, error) {
	cleaned := extractJSON(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return domain.StructuredJob{}, fmt.Errorf("parse oracle response: %w", err)
	}

	if err := payloadSchema.Validate(data); err != nil {
		return domain.StructuredJob{}, fmt.Errorf("validate oracle response: %w", err)
	}

	var p payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return domain.StructuredJob{}, fmt.Errorf("create payload decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return domain.StructuredJob{}, fmt.Errorf("decode oracle response: %w", err)
	}

	return normalize(p), nil
}

func normalize(p payload) domain.StructuredJob {
	job := domain.StructuredJob{
		CollectionAddress:  strings.TrimSpace(p.CollectionAddress),
		DeliveryAddress:    strings.TrimSpace(p.DeliveryAddress),
		Price:              coercePrice(p.Price),
		PostcodeCollection: postcode.Normalize(p.PostcodeCollection),
		PostcodeDelivery:   postcode.Normalize(p.PostcodeDelivery),
		VehicleDetails:     strings.TrimSpace(p.VehicleDetails),
		ContactInfo:        strings.TrimSpace(p.ContactInfo),
		Notes:              strings.TrimSpace(p.Notes),
		ParsingQuality:     domain.ParseQuality(p.ParsingQuality),
		MissingFields:      fieldNames(p.MissingFields),
		UncertainFields:    fieldNames(p.UncertainFields),
	}

	for _, field := range domain.Fields {
		job.SetConfidence(field, coerceScore(p.ConfidenceScores[string(field)]))
	}

	recoverPostcodes(&job)
	finalize(&job)
	return job
}

// recoverPostcodes fills empty postcodes from their addresses.
func recoverPostcodes(job *domain.StructuredJob) {
	if job.PostcodeCollection == "" {
		if code := postcode.Find(job.CollectionAddress); code != "" {
			job.PostcodeCollection = code
			job.SetConfidence(domain.FieldPostcodeCollection, recoveredConfidence)
		}
	}
	if job.PostcodeDelivery == "" {
		if code := postcode.Find(job.DeliveryAddress); code != "" {
			job.PostcodeDelivery = code
			job.SetConfidence(domain.FieldPostcodeDelivery, recoveredConfidence)
		}
	}
}

// extractJSON strips a fenced code block around the payload, if any.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "```")
	if start == -1 {
		return raw
	}

	body := raw[start+3:]
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// coercePrice converts an oracle price into a non-negative number, 0 when unusable.
func coercePrice(v any) float64 {
	var price float64
	switch val := v.(type) {
	case float64:
		price = val
	case int:
		price = float64(val)
	case string:
		cleaned := strings.NewReplacer("£", "", "$", "", ",", "").Replace(strings.TrimSpace(val))
		f, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
		if err != nil {
			return 0
		}
		price = f
	default:
		return 0
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// coerceScore converts a confidence value into an integer in [0,100]. Fractions are truncated.
func coerceScore(v any) int {
	var score float64
	switch val := v.(type) {
	case float64:
		score = val
	case int:
		score = float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		score = f
	default:
		return 0
	}

	if math.IsNaN(score) {
		return 0
	}
	return int(math.Max(math.Min(score, 100), 0))
}

// fieldNames trims, drops blanks and de-duplicates a list of field names keeping order.
func fieldNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
