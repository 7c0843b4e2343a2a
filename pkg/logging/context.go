package logging

import "context"

type contextKey string

const (
	experimentIDKey contextKey = "reval-experiment-id"
	trialSeedKey    contextKey = "reval-trial-seed"
)

// WithExperimentID attaches an experiment identifier to the context so that
// every log record emitted inside the experiment carries it.
func WithExperimentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, experimentIDKey, id)
}

// GetExperimentID extracts the experiment identifier from the context.
func GetExperimentID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(experimentIDKey).(string)
	return id, ok
}

// WithTrialSeed attaches the seed of the currently running trial.
func WithTrialSeed(ctx context.Context, seed int64) context.Context {
	return context.WithValue(ctx, trialSeedKey, seed)
}

// GetTrialSeed extracts the trial seed from the context.
func GetTrialSeed(ctx context.Context) (int64, bool) {
	seed, ok := ctx.Value(trialSeedKey).(int64)
	return seed, ok
}
