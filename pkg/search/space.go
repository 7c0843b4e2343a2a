// Package search implements the forgetting-engine search loop: a population of
// encoded candidates evolved under an elimination score, with a paradox buffer
// that rescues eliminated candidates whose complexity is unusually low for
// their fitness.
package search

import (
	"math/rand"
	"sort"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
)

// FitnessFunc evaluates an encoding and returns a raw fitness value. The rng
// argument is the candidate space's own stream, reserved for stochastic
// evaluators; deterministic evaluators may ignore it.
type FitnessFunc func(encoding []string, rng *rand.Rand) float64

// Candidate is one point in the search space: an ordered token encoding with
// its derived complexity and evaluated fitness.
type Candidate struct {
	Encoding   []string `json:"encoding"`
	Complexity int      `json:"complexity"`
	Fitness    float64  `json:"fitness"`

	// EliminationScore is recomputed every generation; it is the only field
	// overwritten after creation.
	EliminationScore float64 `json:"elimination_score"`

	// Age is reserved for future scoring extensions and is always 0 today.
	Age int `json:"age"`
}

// Weights are the coefficients of the elimination score. Fitness is strongly
// negative by default so that fit candidates score low (low = survives; the
// engine eliminates from the top of the descending sort).
type Weights struct {
	Fitness    float64 `json:"fitness"`
	Complexity float64 `json:"complexity"`
	Novelty    float64 `json:"novelty"`
	Age        float64 `json:"age"`
}

// DefaultWeights returns the reference "universal discovery" calibration.
func DefaultWeights() Weights {
	return Weights{
		Fitness:    -1.0,
		Complexity: 0.1,
		Novelty:    0.3,
		Age:        -0.1,
	}
}

// SpaceConfig contains configuration options for a candidate space.
type SpaceConfig struct {
	// Vocabulary is the fixed set of tokens encodings are drawn from.
	Vocabulary []string `json:"vocabulary"`
	// CostTable maps each token to its complexity contribution.
	CostTable map[string]int `json:"cost_table"`
	// DefaultCost is charged for tokens missing from the cost table.
	DefaultCost int `json:"default_cost"`
	// MinDepth and MaxDepth bound the length of sampled encodings.
	MinDepth int `json:"min_depth"`
	MaxDepth int `json:"max_depth"`
	// TargetComplexity normalizes the complexity term of the score.
	TargetComplexity int `json:"target_complexity"`
	// MaxFitness caps evaluated fitness (default: 1.0).
	MaxFitness float64 `json:"max_fitness"`
	// Weights for the elimination score (default: DefaultWeights).
	Weights Weights `json:"weights"`
	// Seed for the space's own stream, consumed only by fitness evaluation.
	Seed int64 `json:"seed"`
}

// Space defines the sampling, mutation, and cost semantics of a search
// domain. It is independent of the selection policy: the engine passes its
// own rng into Sample and Mutate, so replaying a seed reproduces identical
// candidates regardless of which engine drives the space.
type Space struct {
	vocabulary       []string
	costTable        map[string]int
	defaultCost      int
	minDepth         int
	maxDepth         int
	targetComplexity int
	maxFitness       float64
	weights          Weights
	fitness          FitnessFunc
	rng              *rand.Rand
}

// NewSpace creates a candidate space. All structural parameters are validated
// here so that the generation loop never has to.
func NewSpace(cfg SpaceConfig, fitness FitnessFunc) (*Space, error) {
	if len(cfg.Vocabulary) == 0 {
		return nil, errors.New(errors.InvalidConfiguration, "vocabulary cannot be empty")
	}
	if fitness == nil {
		return nil, errors.New(errors.InvalidConfiguration, "fitness function is required")
	}
	if cfg.MinDepth < 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "min_depth must guarantee at least 1 token"),
			errors.Fields{"min_depth": cfg.MinDepth})
	}
	if cfg.MaxDepth < cfg.MinDepth {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "max_depth must be >= min_depth"),
			errors.Fields{"min_depth": cfg.MinDepth, "max_depth": cfg.MaxDepth})
	}
	if cfg.TargetComplexity <= 0 {
		return nil, errors.New(errors.InvalidConfiguration, "target_complexity must be positive")
	}

	if cfg.MaxFitness <= 0 {
		cfg.MaxFitness = 1.0
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}

	return &Space{
		vocabulary:       append([]string(nil), cfg.Vocabulary...),
		costTable:        cfg.CostTable,
		defaultCost:      cfg.DefaultCost,
		minDepth:         cfg.MinDepth,
		maxDepth:         cfg.MaxDepth,
		targetComplexity: cfg.TargetComplexity,
		maxFitness:       cfg.MaxFitness,
		weights:          cfg.Weights,
		fitness:          fitness,
		rng:              rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Sample draws a fresh random candidate: a uniform depth in
// [minDepth, maxDepth], then that many uniform tokens. The passed rng is the
// caller's stream; the space's own stream is only consumed by evaluation.
func (s *Space) Sample(rng *rand.Rand) Candidate {
	depth := s.minDepth + rng.Intn(s.maxDepth-s.minDepth+1)
	encoding := make([]string, depth)
	for i := range encoding {
		encoding[i] = s.vocabulary[rng.Intn(len(s.vocabulary))]
	}
	return s.build(encoding)
}

// Mutation operators, drawn uniformly. An operator whose guard fails leaves
// the encoding unchanged but the child is still re-evaluated.
const (
	opSwap = iota
	opInsert
	opDelete
	opReplace
	numMutationOps
)

// Mutate applies one random mutation operator to a copy of the parent's
// encoding and returns a new candidate. The parent is never modified. An
// empty parent falls back to Sample.
func (s *Space) Mutate(parent Candidate, rng *rand.Rand) Candidate {
	if len(parent.Encoding) == 0 {
		return s.Sample(rng)
	}

	encoding := append([]string(nil), parent.Encoding...)
	n := len(encoding)

	switch rng.Intn(numMutationOps) {
	case opSwap:
		if n > 1 {
			i := rng.Intn(n)
			j := rng.Intn(n - 1)
			if j >= i {
				j++ // two distinct positions
			}
			encoding[i], encoding[j] = encoding[j], encoding[i]
		}
	case opInsert:
		pos := rng.Intn(n + 1)
		token := s.vocabulary[rng.Intn(len(s.vocabulary))]
		encoding = append(encoding[:pos], append([]string{token}, encoding[pos:]...)...)
	case opDelete:
		// Deletion keeps encodings above the minimum viable depth.
		if n > 3 {
			pos := rng.Intn(n)
			encoding = append(encoding[:pos], encoding[pos+1:]...)
		}
	case opReplace:
		encoding[rng.Intn(n)] = s.vocabulary[rng.Intn(len(s.vocabulary))]
	}

	return s.build(encoding)
}

// build derives complexity and fitness for an encoding.
func (s *Space) build(encoding []string) Candidate {
	return Candidate{
		Encoding:   encoding,
		Complexity: s.cost(encoding),
		Fitness:    s.evaluate(encoding),
	}
}

func (s *Space) cost(encoding []string) int {
	total := 0
	for _, token := range encoding {
		if c, ok := s.costTable[token]; ok {
			total += c
		} else {
			total += s.defaultCost
		}
	}
	return total
}

// evaluate runs the injected fitness function and clamps the result to
// [0, maxFitness]. Empty encodings are unfit by definition.
func (s *Space) evaluate(encoding []string) float64 {
	if len(encoding) == 0 {
		return 0
	}
	f := s.fitness(encoding, s.rng)
	if f < 0 {
		return 0
	}
	if f > s.maxFitness {
		return s.maxFitness
	}
	return f
}

// EliminationScore ranks a candidate for removal at the given generation.
// Higher means more eliminable. The age term is inert until candidates carry
// a tracked age.
func (s *Space) EliminationScore(c Candidate, generation int) float64 {
	novelty := float64(distinctTokens(c.Encoding)) / float64(len(s.vocabulary))
	complexity := float64(c.Complexity) / float64(s.targetComplexity)

	score := s.weights.Fitness*c.Fitness +
		s.weights.Complexity*complexity +
		s.weights.Novelty*novelty +
		s.weights.Age*float64(c.Age)

	divisor := generation
	if divisor < 1 {
		divisor = 1
	}
	return score / float64(divisor)
}

// Paradoxical reports whether an eliminated candidate is worth rescuing: its
// fitness is strictly below the population mean while its complexity sits at
// or below the population's 25th percentile. Empty distributions are never
// paradoxical.
func (s *Space) Paradoxical(c Candidate, fitnesses []float64, complexities []int) bool {
	if len(fitnesses) == 0 || len(complexities) == 0 {
		return false
	}

	var sum float64
	for _, f := range fitnesses {
		sum += f
	}
	meanFitness := sum / float64(len(fitnesses))

	return c.Fitness < meanFitness && float64(c.Complexity) <= percentile(complexities, 25)
}

func distinctTokens(encoding []string) int {
	seen := make(map[string]struct{}, len(encoding))
	for _, token := range encoding {
		seen[token] = struct{}{}
	}
	return len(seen)
}

// percentile computes the p-th percentile with linear interpolation between
// closest ranks, matching the convention the validation data was produced
// under.
func percentile(values []int, p float64) float64 {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	if len(sorted) == 1 {
		return float64(sorted[0])
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[len(sorted)-1])
	}
	frac := rank - float64(lower)
	return float64(sorted[lower]) + frac*float64(sorted[upper]-sorted[lower])
}
