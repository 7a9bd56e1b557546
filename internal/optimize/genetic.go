package optimize

import (
	"context"
	"math/rand"
	"sort"
)

// GeneticConfig tunes the genetic search loop (spec §4.6 "Genetic
// loop").
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	SurvivorCount  int
	MutationRate   float64
}

// DefaultGeneticConfig derives a population sized to optimalTotal, the
// same quantity the original optimizer reuses as both the trade-count
// normalization target and (scaled) the iteration budget.
func DefaultGeneticConfig(optimalTotal int) GeneticConfig {
	survivors := optimalTotal / 4
	if survivors < 2 {
		survivors = 2
	}
	return GeneticConfig{
		PopulationSize: optimalTotal,
		Generations:    20,
		SurvivorCount:  survivors,
		MutationRate:   0.1,
	}
}

// RunGenetic drives the genetic search: an initial random population,
// tournament-selected survivors scored each generation, crossover and
// per-gene mutation refilling the rest of the population, terminating
// after cfg.Generations rounds (spec §4.6 steps 1-4). Returns the best
// candidate observed across every generation.
func (c *Coordinator) RunGenetic(ctx context.Context, cfg GeneticConfig) (Candidate, error) {
	population := make([]string, cfg.PopulationSize)
	for i := range population {
		dna, err := RandomDNA(c.Specs, c.Rng)
		if err != nil {
			return Candidate{}, err
		}
		population[i] = dna
	}

	var best Candidate
	haveBest := false

	for gen := 0; gen < cfg.Generations; gen++ {
		scored := make([]Candidate, 0, len(population))
		for _, dna := range population {
			if err := ctx.Err(); err != nil {
				return best, err
			}
			cand, err := c.score(ctx, dna)
			if err != nil {
				return Candidate{}, err
			}
			scored = append(scored, cand)
			if !haveBest || cand.Score > best.Score {
				best = cand
				haveBest = true
			}
		}

		sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
		survivorCount := cfg.SurvivorCount
		if survivorCount > len(scored) {
			survivorCount = len(scored)
		}
		if survivorCount < 1 {
			survivorCount = 1
		}
		survivors := scored[:survivorCount]

		c.log.WithFields(map[string]any{"generation": gen, "best_score": best.Score}).Info("generation complete")

		if gen == cfg.Generations-1 {
			break
		}

		next := make([]string, 0, cfg.PopulationSize)
		for len(next) < cfg.PopulationSize {
			parentA := tournamentPick(survivors, c.Rng)
			parentB := tournamentPick(survivors, c.Rng)
			childA, childB := Crossover(parentA.DNA, parentB.DNA, c.Rng)

			mutatedA, err := Mutate(childA, c.Specs, cfg.MutationRate, c.Rng)
			if err != nil {
				return Candidate{}, err
			}
			next = append(next, mutatedA)
			if len(next) < cfg.PopulationSize {
				mutatedB, err := Mutate(childB, c.Specs, cfg.MutationRate, c.Rng)
				if err != nil {
					return Candidate{}, err
				}
				next = append(next, mutatedB)
			}
		}
		population = next
	}

	return best, nil
}

// tournamentPick selects one survivor via two-way tournament selection:
// sample two at random, keep the higher-scoring one.
func tournamentPick(survivors []Candidate, rng *rand.Rand) Candidate {
	a := survivors[rng.Intn(len(survivors))]
	b := survivors[rng.Intn(len(survivors))]
	if a.Score >= b.Score {
		return a
	}
	return b
}
