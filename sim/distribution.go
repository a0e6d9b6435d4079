package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/broadcast-sim/broadcast-sim/sim/config"
)

// Distribution generates scalar samples for inter-arrival times, packet
// sizes, and processing times.
type Distribution interface {
	// NextValue returns the next sample drawn from the configured law.
	NextValue() float64
}

// ConstDist always returns the same fixed value.
type ConstDist struct {
	value float64
}

func (d *ConstDist) NextValue() float64 { return d.value }

// UniformDist draws uniformly between min and max. With integer enabled,
// samples are rounded to the nearest integer.
type UniformDist struct {
	min, max float64
	integer  bool
	rng      *rand.Rand
}

func (d *UniformDist) NextValue() float64 {
	v := d.min + d.rng.Float64()*(d.max-d.min)
	if d.integer {
		return math.Round(v)
	}
	return v
}

// ExpDist draws exponentially with the given rate. With integer enabled,
// samples are discretized with ceil.
type ExpDist struct {
	lambda  float64
	integer bool
	rng     *rand.Rand
}

func (d *ExpDist) NextValue() float64 {
	v := d.rng.ExpFloat64() / d.lambda
	if d.integer {
		return math.Ceil(v)
	}
	return v
}

// requireParam checks that all required keys exist in a distribution spec.
func requireParam(spec config.DistSpec, keys ...string) error {
	for _, k := range keys {
		if _, ok := spec.Params[k]; !ok {
			return fmt.Errorf("distribution %q requires parameter %q", spec.Name, k)
		}
	}
	return nil
}

// NewDistribution creates a Distribution from a run-resolved spec. Accepted
// forms:
//
//	{distribution: const, mean: v}
//	{distribution: unif, min: v, max: v[, int: 1]}
//	{distribution: exp, mean: v[, int: 1]}   // rate = 1/mean
//	{distribution: exp, lambda: v[, int: 1]}
//
// Samples are drawn from rng, so runs stay deterministic under a fixed seed.
func NewDistribution(spec config.DistSpec, rng *rand.Rand) (Distribution, error) {
	integer := spec.Params["int"] == 1

	switch spec.Name {
	case "const":
		if err := requireParam(spec, "mean"); err != nil {
			return nil, err
		}
		return &ConstDist{value: spec.Params["mean"]}, nil

	case "unif":
		if err := requireParam(spec, "min", "max"); err != nil {
			return nil, err
		}
		return &UniformDist{
			min:     spec.Params["min"],
			max:     spec.Params["max"],
			integer: integer,
			rng:     rng,
		}, nil

	case "exp":
		if mean, ok := spec.Params["mean"]; ok {
			return &ExpDist{lambda: 1.0 / mean, integer: integer, rng: rng}, nil
		}
		if err := requireParam(spec, "lambda"); err != nil {
			return nil, fmt.Errorf("distribution %q requires parameter \"mean\" or \"lambda\"", spec.Name)
		}
		return &ExpDist{lambda: spec.Params["lambda"], integer: integer, rng: rng}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Name)
	}
}
