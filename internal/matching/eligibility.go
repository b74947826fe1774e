package matching

import (
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/domain"
)

// Step describes the result of executing an eligibility step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

type pool struct {
	jobs    []domain.Job
	drivers []domain.Driver
}

// filter drops jobs or drivers that cannot take part in matching.
type filter interface {
	Name() string
	Apply(p pool) (pool, Step)
}

type deliveryPostcodeFilter struct{}

func (deliveryPostcodeFilter) Name() string { return "jobs_with_delivery_postcode" }

func (deliveryPostcodeFilter) Apply(p pool) (pool, Step) {
	initial := len(p.jobs)
	kept := make([]domain.Job, 0, initial)
	for _, job := range p.jobs {
		if job.PostcodeDelivery == "" {
			continue
		}
		kept = append(kept, job)
	}
	p.jobs = kept
	return p, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

type driverPostcodeFilter struct{}

func (driverPostcodeFilter) Name() string { return "drivers_with_postcode" }

func (driverPostcodeFilter) Apply(p pool) (pool, Step) {
	initial := len(p.drivers)
	kept := make([]domain.Driver, 0, initial)
	for _, driver := range p.drivers {
		if driver.Postcode == "" {
			continue
		}
		kept = append(kept, driver)
	}
	p.drivers = kept
	return p, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

var eligibility = []filter{deliveryPostcodeFilter{}, driverPostcodeFilter{}}

// eligible runs the eligibility steps in order. Input order is preserved.
func eligible(log *zap.Logger, jobs []domain.Job, drivers []domain.Driver) pool {
	p := pool{jobs: jobs, drivers: drivers}
	for _, step := range eligibility {
		var info Step
		p, info = step.Apply(p)
		log.Debug("eligibility step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
	}
	return p
}
