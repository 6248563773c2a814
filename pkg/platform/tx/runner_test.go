package tx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRunner(t *testing.T) {
	runner := NewMemoryRunner()

	t.Run("failed unit replays undo steps newest first", func(t *testing.T) {
		var order []int
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			OnRollback(ctx, func() { order = append(order, 1) })
			OnRollback(ctx, func() { order = append(order, 2) })
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.Equal(t, []int{2, 1}, order)
	})

	t.Run("successful unit keeps its writes", func(t *testing.T) {
		undone := false
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			OnRollback(ctx, func() { undone = true })
			return nil
		})
		require.NoError(t, err)
		assert.False(t, undone)
	})

	t.Run("cancelled context never starts the unit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := runner.RunInTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
	})

	t.Run("OnRollback outside a unit is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { OnRollback(context.Background(), func() {}) })
	})

	t.Run("a unit waits until the running unit has finished", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		firstDone := make(chan struct{})
		secondDone := make(chan struct{})
		var secondStarted atomic.Bool

		go func() {
			defer close(firstDone)
			_ = runner.RunInTx(context.Background(), func(context.Context) error {
				close(entered)
				<-release
				return errors.New("rolled back")
			})
		}()
		<-entered
		go func() {
			defer close(secondDone)
			_ = runner.RunInTx(context.Background(), func(context.Context) error {
				secondStarted.Store(true)
				return nil
			})
		}()

		time.Sleep(20 * time.Millisecond)
		assert.False(t, secondStarted.Load())
		close(release)
		<-firstDone
		<-secondDone
		assert.True(t, secondStarted.Load())
	})

	t.Run("nested unit joins the outer unit", func(t *testing.T) {
		var order []int
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			OnRollback(ctx, func() { order = append(order, 1) })
			require.NoError(t, runner.RunInTx(ctx, func(ctx context.Context) error {
				OnRollback(ctx, func() { order = append(order, 2) })
				return nil
			}))
			return errors.New("outer failed")
		})
		require.Error(t, err)
		assert.Equal(t, []int{2, 1}, order)
	})
}

func TestSQLRunner(t *testing.T) {
	t.Run("commits and exposes the tx to stores", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err = NewSQLRunner(db, 0).RunInTx(context.Background(), func(ctx context.Context) error {
			_, ok := From(ctx)
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		cause := errors.New("audit write failed")
		err = NewSQLRunner(db, 0).RunInTx(context.Background(), func(context.Context) error {
			return cause
		})
		assert.ErrorIs(t, err, cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
