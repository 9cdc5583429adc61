package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okeefe/recite-api/internal/store"
)

func pgError(code string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: "decks_name_key"}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), store.ErrNotFound},
		{"unique violation", pgError(uniqueViolationCode), store.ErrDuplicate},
		{"foreign key violation", pgError(foreignKeyViolationCode), store.ErrInvalidEntity},
		{"check violation", pgError(checkViolationCode), store.ErrInvalidEntity},
		{"not null violation", pgError(notNullViolationCode), store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mapped := MapError(tc.err)
			assert.True(t, errors.Is(mapped, tc.want), "expected %v to map to %v", tc.err, tc.want)
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		t.Parallel()
		unknown := errors.New("connection reset")
		assert.Equal(t, unknown, MapError(unknown))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode)))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgError(uniqueViolationCode))))
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode)))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode)))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode)))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	t.Run("maps to the specific sentinel", func(t *testing.T) {
		t.Parallel()
		mapped := MapUniqueViolation(pgError(uniqueViolationCode), store.ErrDeckNameExists)
		assert.True(t, errors.Is(mapped, store.ErrDeckNameExists))
	})

	t.Run("falls back to the generic duplicate error", func(t *testing.T) {
		t.Parallel()
		mapped := MapUniqueViolation(pgError(uniqueViolationCode), nil)
		assert.True(t, errors.Is(mapped, store.ErrDuplicate))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		t.Parallel()
		unknown := errors.New("boom")
		assert.Equal(t, unknown, MapUniqueViolation(unknown, store.ErrDeckNameExists))
	})
}

// fakeResult implements sql.Result for CheckRowsAffected tests.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("rows affected", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrDeckNotFound))
	})

	t.Run("zero rows returns the not found error", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, store.ErrDeckNotFound)
		assert.ErrorIs(t, err, store.ErrDeckNotFound)
	})

	t.Run("zero rows without a sentinel", func(t *testing.T) {
		t.Parallel()
		err := CheckRowsAffected(fakeResult{rows: 0}, nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		require.Error(t, CheckRowsAffected(nil, nil))
	})

	t.Run("rows affected error", func(t *testing.T) {
		t.Parallel()
		require.Error(t, CheckRowsAffected(fakeResult{err: errors.New("driver")}, nil))
	})
}
