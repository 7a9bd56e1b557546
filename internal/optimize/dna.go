package optimize

import (
	"math/rand"

	"github.com/constantine-labs/backtest/internal/hyperparam"
)

// RandomDNA draws a uniformly random point from specs' combined grid
// and encodes it, used to seed an initial population or to generate
// plain random-search candidates.
func RandomDNA(specs []hyperparam.Spec, rng *rand.Rand) (string, error) {
	grids := hyperparam.Grids(specs)
	values := make(hyperparam.Values, len(specs))
	for i, spec := range specs {
		grid := grids[i]
		values[spec.Name] = grid[rng.Intn(len(grid))]
	}
	return hyperparam.Encode(specs, values)
}

// Crossover performs single-point crossover between two equal-length
// DNA strings. Each character independently indexes its own
// parameter's grid, so splicing at any point always yields two valid
// DNA strings without needing to decode/re-encode.
func Crossover(a, b string, rng *rand.Rand) (string, string) {
	if len(a) != len(b) || len(a) < 2 {
		return a, b
	}
	point := 1 + rng.Intn(len(a)-1)
	return a[:point] + b[point:], b[:point] + a[point:]
}

// Mutate replaces each gene with a new random value on its own
// parameter's grid independently with probability rate, the DNA
// analog of the genetic loop's per-character mutation step.
func Mutate(dna string, specs []hyperparam.Spec, rate float64, rng *rand.Rand) (string, error) {
	decoded, err := hyperparam.Decode(specs, dna)
	if err != nil {
		return "", err
	}
	grids := hyperparam.Grids(specs)
	values := make(hyperparam.Values, len(specs))
	for i, spec := range specs {
		v := decoded.Values[spec.Name]
		if rng.Float64() < rate {
			grid := grids[i]
			v = grid[rng.Intn(len(grid))]
		}
		values[spec.Name] = v
	}
	return hyperparam.Encode(specs, values)
}

// Neighbor perturbs one randomly chosen gene to an adjacent grid value,
// used by hill climbing and simulated annealing which move through the
// search space one step at a time rather than recombining whole
// populations. A step off either end of the grid leaves the gene
// unchanged, so the result can equal dna.
func Neighbor(dna string, specs []hyperparam.Spec, rng *rand.Rand) (string, error) {
	decoded, err := hyperparam.Decode(specs, dna)
	if err != nil {
		return "", err
	}
	grids := hyperparam.Grids(specs)
	gene := rng.Intn(len(specs))
	spec := specs[gene]
	grid := grids[gene]

	idx := 0
	for i, v := range grid {
		if v == decoded.Values[spec.Name] {
			idx = i
			break
		}
	}
	step := 1
	if rng.Intn(2) == 0 {
		step = -1
	}
	next := idx + step
	if next < 0 || next >= len(grid) {
		next = idx
	}

	values := make(hyperparam.Values, len(specs))
	for k, v := range decoded.Values {
		values[k] = v
	}
	values[spec.Name] = grid[next]
	return hyperparam.Encode(specs, values)
}
