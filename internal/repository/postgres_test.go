package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/astren/internal/model"
)

func TestCentsRoundTrip(t *testing.T) {
	tests := []struct {
		value float64
		cents int64
	}{
		{9.9, 990},
		{13.99, 1399},
		{0.5, 50},
		{2.99, 299},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.cents, toCents(tt.value))
		assert.InDelta(t, tt.value, fromCents(tt.cents), 1e-9)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryable(errors.New("syntax error")))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation})
	assert.True(t, isUniqueViolation(err))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	r := &PostgresRepository{}
	calls := 0

	err := r.withRetry(context.Background(), func() error {
		calls++
		return ErrInsufficientBalance
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesSerializationFailure(t *testing.T) {
	saved := retryDelays
	retryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = saved })

	r := &PostgresRepository{}
	calls := 0

	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_RespectsContext(t *testing.T) {
	saved := retryDelays
	retryDelays = []time.Duration{time.Hour}
	t.Cleanup(func() { retryDelays = saved })

	ctx, cancel := context.WithCancel(context.Background())
	r := &PostgresRepository{}

	err := r.withRetry(ctx, func() error {
		cancel()
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategoriesConversion(t *testing.T) {
	assert.Nil(t, toCategories(nil))
	assert.Equal(t, []model.Category{model.CategoryKids}, toCategories([]string{"kids"}))
	assert.Equal(t, []string{}, fromCategories(nil))
	assert.Equal(t, []string{"mains", "combo"}, fromCategories([]model.Category{model.CategoryMains, model.CategoryCombo}))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
