// Package nas provides the neural-architecture search domain used by the
// validation experiments: a fixed op vocabulary with per-layer parameter
// costs and a simulated accuracy estimator standing in for real training.
package nas

import (
	"math/rand"

	"github.com/CONEXUS-dev/research-validation/pkg/search"
)

// Layer ops of the CIFAR-10 search space.
const (
	Conv3   = "CONV3"
	Conv5   = "CONV5"
	Pool    = "POOL"
	Dropout = "DROP"
)

// DefaultTargetComplexity is the parameter budget the score normalizes
// against.
const DefaultTargetComplexity = 1_000_000

// DefaultCost is charged for ops missing from the cost table.
const DefaultCost = 10_000

// Vocabulary returns the op set architectures are built from.
func Vocabulary() []string {
	return []string{Conv3, Conv5, Pool, Dropout}
}

// CostTable returns rough per-layer parameter counts.
func CostTable() map[string]int {
	return map[string]int{
		Conv3:   50_000,
		Conv5:   100_000,
		Pool:    1_000,
		Dropout: 500,
	}
}

// DefaultSpaceConfig returns the space configuration the reference
// experiments were run with.
func DefaultSpaceConfig(seed int64) search.SpaceConfig {
	return search.SpaceConfig{
		Vocabulary:       Vocabulary(),
		CostTable:        CostTable(),
		DefaultCost:      DefaultCost,
		MinDepth:         5,
		MaxDepth:         20,
		TargetComplexity: DefaultTargetComplexity,
		MaxFitness:       0.98,
		Seed:             seed,
	}
}

// NewSpace builds the reference NAS candidate space.
func NewSpace(seed int64) (*search.Space, error) {
	return search.NewSpace(DefaultSpaceConfig(seed), SimulatedAccuracy)
}

// SimulatedAccuracy estimates validation accuracy from layer composition.
// Convolutions help, depth dilutes their contribution, and a small noise
// term models run-to-run training variance. Accuracy saturates at 0.98.
func SimulatedAccuracy(encoding []string, rng *rand.Rand) float64 {
	if len(encoding) == 0 {
		return 0
	}

	depthPenalty := 1.0 - float64(len(encoding))/20.0

	var convBonus float64
	for _, op := range encoding {
		switch op {
		case Conv3:
			convBonus += 0.05
		case Conv5:
			convBonus += 0.08
		}
	}

	noise := -0.02 + rng.Float64()*0.04

	accuracy := 0.70 + convBonus*depthPenalty + noise
	if accuracy < 0 {
		return 0
	}
	if accuracy > 0.98 {
		return 0.98
	}
	return accuracy
}

// RandomSearch is the Monte-Carlo baseline: the best of evals independent
// random samples, given the same evaluation budget as one engine run.
func RandomSearch(space *search.Space, evals int, rng *rand.Rand) search.Candidate {
	best := space.Sample(rng)
	for i := 1; i < evals; i++ {
		if c := space.Sample(rng); c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}
