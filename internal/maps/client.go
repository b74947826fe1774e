// Package maps queries the Google Directions API for driving distances between UK postcodes.
package maps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/utils"
)

const (
	apiURL         = "https://maps.googleapis.com"
	directionsPath = "/maps/api/directions/json"
	userAgent      = "spigell/soto-lp"

	metersToMiles     = 0.000621371
	defaultAttempts   = 3
	defaultRetryDelay = time.Second
)

// ErrNoRoute is returned when the API knows no driving route between the two places.
var ErrNoRoute = errors.New("no route found")

type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Attempts bounds the requests made when the API reports a transient status.
	Attempts   int
	RetryDelay time.Duration
}

func New(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		logger: logger.OrNop(log),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent:  userAgent,
		APIURL:     apiURL,
		Attempts:   defaultAttempts,
		RetryDelay: defaultRetryDelay,
	}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Distance returns the driving route from origin to destination. Either may be a postcode or
// an address.
func (c *Client) Distance(ctx context.Context, origin, destination string) (domain.Route, error) {
	if c.apiKey == "" {
		return domain.Route{}, errors.New("maps api key is not configured")
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("mode", "driving")
	q.Set("units", "imperial")
	q.Set("region", "uk")
	q.Set("key", c.apiKey)

	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var response directionsResponse
	for attempt := 1; ; attempt++ {
		response = directionsResponse{}
		if err := c.getJSON(ctx, c.APIURL+directionsPath, q, &response); err != nil {
			return domain.Route{}, fmt.Errorf("request directions: %w", err)
		}

		if !transient(response.Status) || attempt == attempts {
			break
		}

		delay := c.RetryDelay * time.Duration(1<<(attempt-1))
		c.logger.Debug("directions api busy, retrying",
			zap.String("status", response.Status),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			return domain.Route{}, err
		}
	}

	switch response.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return domain.Route{}, ErrNoRoute
	default:
		return domain.Route{}, fmt.Errorf("directions api status %s: %s", response.Status, response.ErrorMessage)
	}

	if len(response.Routes) == 0 || len(response.Routes[0].Legs) == 0 {
		return domain.Route{}, ErrNoRoute
	}

	leg := response.Routes[0].Legs[0]
	return domain.Route{
		DistanceMiles:   round2(leg.Distance.Value * metersToMiles),
		DurationMinutes: round2(leg.Duration.Value / 60),
	}, nil
}

func transient(status string) bool {
	return status == "OVER_QUERY_LIMIT" || status == "UNKNOWN_ERROR"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
