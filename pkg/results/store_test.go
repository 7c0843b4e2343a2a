package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(seed int64, method string, fitness float64) TrialRecord {
	return TrialRecord{
		ExperimentID:   "exp-1",
		Domain:         "neural_architecture",
		Method:         method,
		Seed:           seed,
		BestFitness:    fitness,
		BestComplexity: 450000,
		BestEncoding:   []string{"CONV3", "CONV5", "POOL"},
		ParadoxCount:   3,
		Generations:    100,
		CreatedAt:      time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC),
	}
}

func TestStorePutAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleRecord(6000, MethodForgettingEngine, 0.91)))
	require.NoError(t, store.Put(ctx, sampleRecord(6001, MethodForgettingEngine, 0.89)))
	require.NoError(t, store.Put(ctx, sampleRecord(6000, MethodRandomSearch, 0.84)))

	records, err := store.List(ctx, "exp-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, MethodForgettingEngine, first.Method)
	assert.Equal(t, int64(6000), first.Seed)
	assert.Equal(t, []string{"CONV3", "CONV5", "POOL"}, first.BestEncoding)
	assert.Equal(t, 0.91, first.BestFitness)
	assert.Equal(t, 3, first.ParadoxCount)
}

func TestStoreRejectsDuplicateIdentity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord(6000, MethodForgettingEngine, 0.91)
	require.NoError(t, store.Put(ctx, record))

	// Same experiment/domain/method/seed must not be overwritten.
	record.BestFitness = 0.50
	require.Error(t, store.Put(ctx, record))
}

func TestStoreFitnesses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleRecord(6002, MethodForgettingEngine, 0.93)))
	require.NoError(t, store.Put(ctx, sampleRecord(6000, MethodForgettingEngine, 0.91)))
	require.NoError(t, store.Put(ctx, sampleRecord(6001, MethodForgettingEngine, 0.92)))
	require.NoError(t, store.Put(ctx, sampleRecord(6000, MethodRandomSearch, 0.80)))

	fitnesses, err := store.Fitnesses(ctx, "exp-1", "neural_architecture", MethodForgettingEngine)
	require.NoError(t, err)

	// Ordered by seed, independent of insertion order.
	assert.Equal(t, []float64{0.91, 0.92, 0.93}, fitnesses)

	empty, err := store.Fitnesses(ctx, "exp-1", "neural_architecture", "hill_climbing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreListUnknownExperiment(t *testing.T) {
	store := newTestStore(t)

	records, err := store.List(context.Background(), "no-such-experiment")
	require.NoError(t, err)
	assert.Empty(t, records)
}
