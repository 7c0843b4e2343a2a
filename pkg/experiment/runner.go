// Package experiment orchestrates a full validation run: engine and baseline
// trial sweeps, persistence, statistical analysis, and report assembly.
package experiment

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/CONEXUS-dev/research-validation/pkg/config"
	"github.com/CONEXUS-dev/research-validation/pkg/errors"
	"github.com/CONEXUS-dev/research-validation/pkg/logging"
	"github.com/CONEXUS-dev/research-validation/pkg/nas"
	"github.com/CONEXUS-dev/research-validation/pkg/report"
	"github.com/CONEXUS-dev/research-validation/pkg/repro"
	"github.com/CONEXUS-dev/research-validation/pkg/results"
	"github.com/CONEXUS-dev/research-validation/pkg/search"
	"github.com/CONEXUS-dev/research-validation/pkg/stats"
)

// DomainNeuralArchitecture is the reference search domain.
const DomainNeuralArchitecture = "neural_architecture"

// Runner executes the trial sweep described by a configuration. Trials run
// concurrently; each trial owns its own seeded space and engine, so trial
// outcomes do not depend on scheduling.
type Runner struct {
	cfg    *config.Config
	store  *results.Store
	logger *logging.Logger
}

// NewRunner builds a runner. The store may be nil, in which case records are
// written only to the per-seed JSON files.
func NewRunner(cfg *config.Config, store *results.Store) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New(errors.InvalidConfiguration, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Experiment.Domain != DomainNeuralArchitecture {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "unsupported domain"),
			errors.Fields{"domain": cfg.Experiment.Domain},
		)
	}

	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.GetLogger(),
	}, nil
}

// Seeds returns the trial seeds in order. Both arms use the same seed set;
// records are distinguished by method.
func (r *Runner) Seeds() []int64 {
	seeds := make([]int64, r.cfg.Experiment.Trials)
	for i := range seeds {
		seeds[i] = r.cfg.Experiment.SeedBase + int64(i)
	}
	return seeds
}

// Run executes both trial arms, persists every record, analyzes the results,
// and writes the JSON report to the configured path.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	experimentID := uuid.New().String()
	ctx = logging.WithExperimentID(ctx, experimentID)

	r.logger.Info(ctx, "Starting experiment %q: %d trials per arm, domain %s",
		r.cfg.Experiment.Name, r.cfg.Experiment.Trials, r.cfg.Experiment.Domain)

	engineRecords, err := r.runArm(ctx, experimentID, results.MethodForgettingEngine)
	if err != nil {
		return nil, err
	}
	baselineRecords, err := r.runArm(ctx, experimentID, results.MethodRandomSearch)
	if err != nil {
		return nil, err
	}

	for _, rec := range append(engineRecords, baselineRecords...) {
		if err := r.persist(ctx, rec); err != nil {
			return nil, err
		}
	}

	analysis, err := r.analyze(engineRecords, baselineRecords)
	if err != nil {
		return nil, err
	}

	validator := stats.NewValidator(
		r.cfg.Stats.SignificanceLevel,
		stats.CorrectionMethod(r.cfg.Stats.Correction),
	)
	rep, err := report.Build(experimentID, validator, map[string]stats.DomainAnalysis{
		r.cfg.Experiment.Domain: analysis,
	})
	if err != nil {
		return nil, err
	}

	if r.cfg.Output.ReportPath != "" {
		if err := rep.WriteJSON(r.cfg.Output.ReportPath); err != nil {
			return nil, err
		}
	}

	r.logger.Info(ctx, "Experiment %s complete: improvement %+.2f%%, p=%.4g",
		experimentID, analysis.ImprovementPct, analysis.Test.PValue)
	return rep, nil
}

// runArm runs every trial of one method. Results come back in seed order
// regardless of completion order.
func (r *Runner) runArm(ctx context.Context, experimentID, method string) ([]results.TrialRecord, error) {
	seeds := r.Seeds()
	records := make([]results.TrialRecord, len(seeds))

	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(r.cfg.Experiment.MaxConcurrentTrials)

	for i, seed := range seeds {
		i, seed := i, seed
		p.Go(func(ctx context.Context) error {
			ctx = logging.WithTrialSeed(ctx, seed)
			rec, err := r.runTrial(ctx, experimentID, method, seed)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Runner) runTrial(ctx context.Context, experimentID, method string, seed int64) (results.TrialRecord, error) {
	space, err := nas.NewSpace(seed)
	if err != nil {
		return results.TrialRecord{}, err
	}

	var (
		best search.Candidate
		meta search.Metadata
	)
	switch method {
	case results.MethodForgettingEngine:
		engine, err := search.NewEngine(space, r.searchConfig(seed))
		if err != nil {
			return results.TrialRecord{}, err
		}
		best, meta, err = engine.Run(ctx)
		if err != nil {
			return results.TrialRecord{}, err
		}
	case results.MethodRandomSearch:
		rng := rand.New(rand.NewSource(seed))
		best = nas.RandomSearch(space, r.cfg.Experiment.BaselineEvals, rng)
	default:
		return results.TrialRecord{}, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "unknown method"),
			errors.Fields{"method": method},
		)
	}

	r.logger.Debug(ctx, "Trial done: method=%s seed=%d fitness=%.4f complexity=%d",
		method, seed, best.Fitness, best.Complexity)

	return results.TrialRecord{
		ExperimentID:   experimentID,
		Domain:         r.cfg.Experiment.Domain,
		Method:         method,
		Seed:           seed,
		BestFitness:    best.Fitness,
		BestComplexity: best.Complexity,
		BestEncoding:   best.Encoding,
		ParadoxCount:   meta.ParadoxCount,
		Generations:    meta.GenerationsCompleted,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// persist seals the record, writes the per-seed JSON file, and archives the
// record in the store when one is configured.
func (r *Runner) persist(ctx context.Context, rec results.TrialRecord) error {
	if err := repro.SaveTrial(r.cfg.Output.DataDir, rec); err != nil {
		return err
	}
	if r.store != nil {
		if err := repro.Seal(&rec); err != nil {
			return err
		}
		if err := r.store.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) analyze(engineRecords, baselineRecords []results.TrialRecord) (stats.DomainAnalysis, error) {
	engineFitness := fitnesses(engineRecords)
	baselineFitness := fitnesses(baselineRecords)

	validator := stats.NewValidator(
		r.cfg.Stats.SignificanceLevel,
		stats.CorrectionMethod(r.cfg.Stats.Correction),
	)
	// A dedicated bootstrap stream keeps the analysis reproducible across
	// runs of the same configuration.
	rng := rand.New(rand.NewSource(r.cfg.Experiment.SeedBase))
	return validator.AnalyzeDomain(engineFitness, baselineFitness, rng)
}

func (r *Runner) searchConfig(seed int64) search.Config {
	return search.Config{
		PopSize:           r.cfg.Search.PopSize,
		Generations:       r.cfg.Search.Generations,
		ForgetRate:        r.cfg.Search.ForgetRate,
		ParadoxRate:       r.cfg.Search.ParadoxRate,
		RescueProbability: r.cfg.Search.RescueProbability,
		Seed:              seed,
		MaxGoroutines:     r.cfg.Search.MaxGoroutines,
	}
}

func fitnesses(records []results.TrialRecord) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = rec.BestFitness
	}
	return out
}
