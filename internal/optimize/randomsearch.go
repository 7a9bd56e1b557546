package optimize

import (
	"context"
	"math"
)

// RunRandomSearch evaluates n independently drawn random DNAs and
// returns the best one seen, the simplest of the supported search
// strategies and the original optimizer's default (`hyperactive`'s
// RandomSearchOptimizer).
func (c *Coordinator) RunRandomSearch(ctx context.Context, n int) (Candidate, error) {
	var best Candidate
	haveBest := false

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		dna, err := RandomDNA(c.Specs, c.Rng)
		if err != nil {
			return Candidate{}, err
		}
		cand, err := c.score(ctx, dna)
		if err != nil {
			return Candidate{}, err
		}
		if !haveBest || cand.Score > best.Score {
			best = cand
			haveBest = true
		}
	}
	return best, nil
}

// HillClimbingConfig tunes the hill-climbing loop.
type HillClimbingConfig struct {
	Iterations int
	Restarts   int
}

// RunHillClimbing performs stochastic local search from cfg.Restarts
// random starting points: each start runs cfg.Iterations steps, and each
// step scores one random single-gene neighbor and moves to it if it
// scores at least as well. The best candidate across restarts wins.
func (c *Coordinator) RunHillClimbing(ctx context.Context, cfg HillClimbingConfig) (Candidate, error) {
	var best Candidate
	haveBest := false

	for r := 0; r < cfg.Restarts; r++ {
		current, err := RandomDNA(c.Specs, c.Rng)
		if err != nil {
			return Candidate{}, err
		}
		cand, err := c.score(ctx, current)
		if err != nil {
			return Candidate{}, err
		}

		for i := 0; i < cfg.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return best, err
			}
			neighbor, err := Neighbor(current, c.Specs, c.Rng)
			if err != nil {
				return Candidate{}, err
			}
			neighborCand, err := c.score(ctx, neighbor)
			if err != nil {
				return Candidate{}, err
			}
			if neighborCand.Score >= cand.Score {
				current = neighbor
				cand = neighborCand
			}
		}

		if !haveBest || cand.Score > best.Score {
			best = cand
			haveBest = true
		}
	}
	return best, nil
}

// SimulatedAnnealingConfig tunes the annealing schedule.
type SimulatedAnnealingConfig struct {
	Iterations       int
	InitialTemp      float64
	CoolingRate      float64 // multiplies the temperature each iteration, in (0,1)
}

// RunSimulatedAnnealing explores the grid by accepting worsening moves
// with probability exp(-delta/temperature), cooling geometrically each
// iteration, giving the search a chance to escape local optima that
// pure hill climbing gets stuck in.
func (c *Coordinator) RunSimulatedAnnealing(ctx context.Context, cfg SimulatedAnnealingConfig) (Candidate, error) {
	current, err := RandomDNA(c.Specs, c.Rng)
	if err != nil {
		return Candidate{}, err
	}
	cand, err := c.score(ctx, current)
	if err != nil {
		return Candidate{}, err
	}
	best := cand

	temperature := cfg.InitialTemp
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		neighbor, err := Neighbor(current, c.Specs, c.Rng)
		if err != nil {
			return Candidate{}, err
		}
		neighborCand, err := c.score(ctx, neighbor)
		if err != nil {
			return Candidate{}, err
		}

		delta := neighborCand.Score - cand.Score
		if delta >= 0 || acceptWorsening(delta, temperature, c.Rng.Float64()) {
			current = neighbor
			cand = neighborCand
		}
		if cand.Score > best.Score {
			best = cand
		}

		temperature *= cfg.CoolingRate
		if temperature < 1e-6 {
			temperature = 1e-6
		}
	}
	return best, nil
}

func acceptWorsening(delta, temperature, roll float64) bool {
	if temperature <= 0 {
		return false
	}
	return roll < math.Exp(delta/temperature)
}
