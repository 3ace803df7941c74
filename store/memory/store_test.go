package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/store/memory"
)

func record(t *testing.T, seq uint64, e event.Event, at time.Time) *event.Record {
	t.Helper()
	r, err := event.NewRecord(seq, e, at)
	require.NoError(t, err)
	return r
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendEvents(ctx, []*event.Record{
		record(t, 2, event.CompositeReleased{CompositeID: 1}, base.Add(time.Minute)),
		record(t, 1, event.CompositeCreated{CompositeID: 1, ConstituentIDs: []uint64{1, 2}}, base),
	}))
	require.NoError(t, s.AppendEvents(ctx, []*event.Record{
		record(t, 3, event.OrderStatusUpdated{OrderID: 1, Status: "Shipped"}, base.Add(2*time.Minute)),
	}))

	all, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, uint64(3), all[2].Seq)

	decoded, err := all[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, decoded.(*event.CompositeCreated).ConstituentIDs)

	after, err := s.ListEvents(ctx, event.ListOpts{AfterSeq: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, event.TypeCompositeReleased, after[0].Type)

	typed, err := s.ListEvents(ctx, event.ListOpts{Type: event.TypeOrderStatusUpdated})
	require.NoError(t, err)
	require.Len(t, typed, 1)

	n, err := s.PurgeEvents(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(3), rest[0].Seq)
}

func TestCheckpoints(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.LatestCheckpoint(ctx)
	assert.ErrorIs(t, err, errs.ErrNoCheckpoint)

	require.NoError(t, s.SaveCheckpoint(ctx, &checkpoint.Checkpoint{ID: id.NewCheckpointID(), Seq: 4}))
	require.NoError(t, s.SaveCheckpoint(ctx, &checkpoint.Checkpoint{ID: id.NewCheckpointID(), Seq: 9}))

	latest, err := s.LatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), latest.Seq)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Close())
}
