package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landledger/internal/audit"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/tx"
)

func decisionEntry(appID id.ApplicationID) audit.Entry {
	return audit.Entry{
		ID:            uuid.New(),
		ApplicationID: appID,
		Actor:         "admin-1",
		Kind:          audit.KindDecision,
		Decision:      "Approved",
		Timestamp:     time.Now().UTC(),
	}
}

func TestInMemoryStoreOutbox(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	appID := id.NewApplicationID()

	require.NoError(t, store.Append(ctx, decisionEntry(appID)))
	require.NoError(t, store.Append(ctx, decisionEntry(appID)))

	pending, err := store.FetchUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "land_application_decided", pending[0].EventType)
	assert.Contains(t, string(pending[0].Payload), appID.String())

	require.NoError(t, store.MarkPublished(ctx, []uuid.UUID{pending[0].ID}, time.Now()))
	pending, err = store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestInMemoryStoreRollback(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	appID := id.NewApplicationID()
	require.NoError(t, store.Append(ctx, decisionEntry(appID)))

	err := tx.NewMemoryRunner().RunInTx(ctx, func(ctx context.Context) error {
		if err := store.Append(ctx, decisionEntry(appID)); err != nil {
			return err
		}
		return errors.New("later step failed")
	})
	require.Error(t, err)

	entries, err := store.ListByApplication(ctx, appID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	pending, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestInMemoryStoreListsByTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	appID := id.NewApplicationID()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	late := decisionEntry(appID)
	late.Timestamp = base.Add(time.Hour)
	tiedFirst := decisionEntry(appID)
	tiedFirst.Timestamp = base
	tiedSecond := decisionEntry(appID)
	tiedSecond.Timestamp = base
	for _, e := range []audit.Entry{late, tiedFirst, tiedSecond} {
		require.NoError(t, store.Append(ctx, e))
	}

	entries, err := store.ListByApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, tiedFirst.ID, entries[0].ID)
	assert.Equal(t, tiedSecond.ID, entries[1].ID)
	assert.Equal(t, late.ID, entries[2].ID)
}
