package search

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
	"github.com/CONEXUS-dev/research-validation/pkg/logging"
	"github.com/sourcegraph/conc/pool"
)

// Config contains configuration options for the search engine.
type Config struct {
	PopSize     int `json:"pop_size"`    // Default: 50
	Generations int `json:"generations"` // Default: 100

	// ForgetRate is the fraction of the population dropped each generation.
	ForgetRate float64 `json:"forget_rate"` // Default: 0.35
	// ParadoxRate sizes the paradox buffer relative to the population.
	ParadoxRate float64 `json:"paradox_rate"` // Default: 0.15
	// RescueProbability is the chance a refill slot re-admits a paradox
	// candidate instead of mutating an elite. Zero selects the default;
	// rescue cannot be disabled.
	RescueProbability float64 `json:"rescue_probability"` // Default: 0.2

	Seed int64 `json:"seed"`

	// MaxGoroutines bounds the workers recomputing elimination scores.
	// Scoring is pure, so parallelism cannot perturb the rng streams.
	MaxGoroutines int `json:"max_goroutines"` // Default: 4
}

// DefaultConfig returns the reference configuration used across the
// validation experiments.
func DefaultConfig() Config {
	return Config{
		PopSize:           50,
		Generations:       100,
		ForgetRate:        0.35,
		ParadoxRate:       0.15,
		RescueProbability: 0.2,
		Seed:              42,
		MaxGoroutines:     4,
	}
}

// Metadata summarizes a completed run for the downstream analysis layer.
type Metadata struct {
	ParadoxCount         int `json:"paradox_count"`
	GenerationsCompleted int `json:"generations_completed"`
}

// Engine owns the scored population and the paradox buffer. The population is
// sampled once per run; every generation re-ranks it, refreshes the buffer,
// and builds a rescue-or-mutate pool whose best candidate challenges the
// running optimum. All randomness for sampling, mutation, and rescue draws
// comes from a single seeded stream, consumed in a fixed order, so two runs
// with identical seeds and hyperparameters produce identical candidate
// sequences.
type Engine struct {
	space  *Space
	config Config

	rng           *rand.Rand
	keepCount     int
	bufferCap     int
	population    []Candidate
	paradoxBuffer []Candidate
	best          Candidate
}

// NewEngine validates the hyperparameters and constructs an engine. Invalid
// combinations fail here, never inside the generation loop.
func NewEngine(space *Space, cfg Config) (*Engine, error) {
	if space == nil {
		return nil, errors.New(errors.InvalidConfiguration, "candidate space is required")
	}
	if cfg.PopSize <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "pop_size must be positive"),
			errors.Fields{"pop_size": cfg.PopSize})
	}
	if cfg.ForgetRate < 0 || cfg.ForgetRate >= 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "forget_rate must be in [0, 1)"),
			errors.Fields{"forget_rate": cfg.ForgetRate})
	}
	if cfg.ParadoxRate <= 0 || cfg.ParadoxRate > 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "paradox_rate must be in (0, 1]"),
			errors.Fields{"paradox_rate": cfg.ParadoxRate})
	}
	if cfg.Generations < 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "generations cannot be negative"),
			errors.Fields{"generations": cfg.Generations})
	}
	if cfg.RescueProbability < 0 || cfg.RescueProbability > 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "rescue_probability must be in [0, 1]"),
			errors.Fields{"rescue_probability": cfg.RescueProbability})
	}
	if cfg.RescueProbability == 0 {
		cfg.RescueProbability = 0.2
	}
	if cfg.MaxGoroutines <= 0 {
		cfg.MaxGoroutines = 4
	}

	keepCount := int(float64(cfg.PopSize) * (1 - cfg.ForgetRate))
	if keepCount < 1 {
		return nil, errors.WithFields(
			errors.New(errors.EmptyPopulation, "partition would leave no elites"),
			errors.Fields{"pop_size": cfg.PopSize, "forget_rate": cfg.ForgetRate})
	}

	bufferCap := int(math.Round(cfg.ParadoxRate * float64(cfg.PopSize)))
	if bufferCap < 1 {
		bufferCap = 1
	}

	return &Engine{
		space:     space,
		config:    cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		keepCount: keepCount,
		bufferCap: bufferCap,
	}, nil
}

// Run executes the full search and returns the best candidate observed
// across every generation, including the random initial population.
// Cancellation is honored only between generations: a partial generation
// would break the determinism contract.
func (e *Engine) Run(ctx context.Context) (Candidate, Metadata, error) {
	logger := logging.GetLogger()

	e.population = make([]Candidate, e.config.PopSize)
	for i := range e.population {
		e.population[i] = e.space.Sample(e.rng)
	}
	e.best = fittest(e.population)
	e.paradoxBuffer = nil

	meta := Metadata{}
	for gen := 1; gen <= e.config.Generations; gen++ {
		if err := errors.CheckContext(ctx, "search run"); err != nil {
			meta.ParadoxCount = len(e.paradoxBuffer)
			return e.best, meta, err
		}

		e.step(gen)
		meta.GenerationsCompleted = gen

		logger.Debug(ctx, "generation %d: best_fitness=%.4f paradox_buffer=%d",
			gen, e.best.Fitness, len(e.paradoxBuffer))
	}

	meta.ParadoxCount = len(e.paradoxBuffer)
	logger.Info(ctx, "search complete: best_fitness=%.4f complexity=%d generations=%d",
		e.best.Fitness, e.best.Complexity, meta.GenerationsCompleted)

	return e.best, meta, nil
}

// step runs one generation: re-rank the scored population, refresh the
// paradox buffer, and challenge the running best with a rebuilt pool.
func (e *Engine) step(gen int) {
	e.recomputeScores(gen)

	// Most eliminable first. The first keepCount entries are retained: this
	// ordering is preserved verbatim from the validated reference runs.
	ranked := append([]Candidate(nil), e.population...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EliminationScore > ranked[j].EliminationScore
	})

	elite := ranked[:e.keepCount]
	eliminated := ranked[e.keepCount:]

	// Paradox detection runs against the whole pre-partition population.
	fitnesses := make([]float64, len(e.population))
	complexities := make([]int, len(e.population))
	for i, c := range e.population {
		fitnesses[i] = c.Fitness
		complexities[i] = c.Complexity
	}

	var paradoxical []Candidate
	for _, c := range eliminated {
		if e.space.Paradoxical(c, fitnesses, complexities) {
			paradoxical = append(paradoxical, c)
		}
	}
	sort.SliceStable(paradoxical, func(i, j int) bool {
		return paradoxical[i].Complexity < paradoxical[j].Complexity
	})
	if len(paradoxical) > e.bufferCap {
		paradoxical = paradoxical[:e.bufferCap]
	}
	// Full replacement: the buffer is a per-generation snapshot.
	e.paradoxBuffer = paradoxical

	// Rebuild: elites survive unchanged, the remainder is filled by rescue
	// or mutation. Draw order is fixed: rescue probability, then selection.
	// The rebuilt pool feeds best tracking only; the scored population is
	// never replaced. Preserved verbatim from the validated reference runs,
	// like the elite ordering above: replacing the pool starves the paradox
	// buffer long before the final generation.
	rebuilt := make([]Candidate, 0, e.config.PopSize)
	rebuilt = append(rebuilt, elite...)
	for len(rebuilt) < e.config.PopSize {
		if e.rng.Float64() < e.config.RescueProbability && len(e.paradoxBuffer) > 0 {
			rebuilt = append(rebuilt, e.paradoxBuffer[e.rng.Intn(len(e.paradoxBuffer))])
		} else {
			parent := elite[e.rng.Intn(len(elite))]
			rebuilt = append(rebuilt, e.space.Mutate(parent, e.rng))
		}
	}

	// Strict improvement only; ties keep the earliest-found optimum.
	if candidate := fittest(rebuilt); candidate.Fitness > e.best.Fitness {
		e.best = candidate
	}
}

// recomputeScores refreshes every candidate's elimination score for the
// current generation. Scoring is a pure function of the candidate, so it
// fans out across workers without touching any rng stream.
func (e *Engine) recomputeScores(gen int) {
	p := pool.New().WithMaxGoroutines(e.config.MaxGoroutines)
	for i := range e.population {
		p.Go(func() {
			e.population[i].EliminationScore = e.space.EliminationScore(e.population[i], gen)
		})
	}
	p.Wait()
}

func fittest(population []Candidate) Candidate {
	best := population[0]
	for _, c := range population[1:] {
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}
