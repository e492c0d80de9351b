package service

import (
	"errors"
	"testing"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRequireReplay tests the result of a generation whose request id was
// rejected as a duplicate.
// This is an internal test because the race that reaches it cannot be
// scheduled from outside the package.
func TestRequireReplay(t *testing.T) {
	t.Run("returns the replayed record", func(t *testing.T) {
		record := &model.DividendRecord{ID: "rec-1"}

		got, err := requireReplay(record, nil, "req-1")

		require.NoError(t, err)
		assert.Same(t, record, got)
	})

	t.Run("a missing record is a conflict", func(t *testing.T) {
		got, err := requireReplay[model.Minutes](nil, nil, "req-1")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrRequestConflict)
		assert.Contains(t, err.Error(), "req-1")
	})

	t.Run("passes lookup errors through", func(t *testing.T) {
		lookup := errors.New("database is locked")

		got, err := requireReplay[model.DividendRecord](nil, lookup, "req-1")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, lookup)
	})
}
