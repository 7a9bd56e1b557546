package optimize

import (
	"math/rand"
	"testing"

	"github.com/constantine-labs/backtest/internal/hyperparam"
)

func testSpecs() []hyperparam.Spec {
	return []hyperparam.Spec{
		{Name: "fast_period", Type: hyperparam.TypeInt, Min: 2, Max: 20, Step: 1, Default: 5},
		{Name: "slow_period", Type: hyperparam.TypeInt, Min: 10, Max: 60, Step: 2, Default: 20},
	}
}

func TestRandomDNADecodesOnGrid(t *testing.T) {
	specs := testSpecs()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		dna, err := RandomDNA(specs, rng)
		if err != nil {
			t.Fatalf("RandomDNA: %v", err)
		}
		if _, err := hyperparam.Decode(specs, dna); err != nil {
			t.Fatalf("Decode(%q): %v", dna, err)
		}
	}
}

func TestCrossoverProducesValidChildren(t *testing.T) {
	specs := testSpecs()
	rng := rand.New(rand.NewSource(1))
	a, _ := RandomDNA(specs, rng)
	b, _ := RandomDNA(specs, rng)

	childA, childB := Crossover(a, b, rng)
	for _, dna := range []string{childA, childB} {
		if _, err := hyperparam.Decode(specs, dna); err != nil {
			t.Errorf("Decode(%q) after crossover: %v", dna, err)
		}
	}
}

func TestMutateUnderFullRateStaysOnGrid(t *testing.T) {
	specs := testSpecs()
	rng := rand.New(rand.NewSource(7))
	dna, _ := RandomDNA(specs, rng)
	mutated, err := Mutate(dna, specs, 1.0, rng)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if _, err := hyperparam.Decode(specs, mutated); err != nil {
		t.Errorf("Decode(%q) after mutation: %v", mutated, err)
	}
}

func TestNeighborChangesAtMostOneGene(t *testing.T) {
	specs := testSpecs()
	rng := rand.New(rand.NewSource(3))
	dna, _ := RandomDNA(specs, rng)
	neighbor, err := Neighbor(dna, specs, rng)
	if err != nil {
		t.Fatalf("Neighbor: %v", err)
	}

	original, _ := hyperparam.Decode(specs, dna)
	moved, _ := hyperparam.Decode(specs, neighbor)

	changed := 0
	for _, spec := range specs {
		if original.Values[spec.Name] != moved.Values[spec.Name] {
			changed++
		}
	}
	if changed > 1 {
		t.Errorf("Neighbor changed %d genes, want at most 1", changed)
	}
}
