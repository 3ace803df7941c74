package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/plugin"
)

type probe struct {
	name string

	mu      sync.Mutex
	calls   []string
	failing bool
}

func (p *probe) Name() string { return p.name }

func (p *probe) record(hook string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, hook)
	if p.failing {
		return errors.New("probe failure")
	}
	return nil
}

func (p *probe) OnEvent(_ context.Context, rec *event.Record) error {
	return p.record("event:" + string(rec.Type))
}

func (p *probe) OnCollectionChanged(_ context.Context, e event.Event) error {
	return p.record("collection:" + string(e.EventType()))
}

func (p *probe) OnOrderUpdated(_ context.Context, e event.Event) error {
	return p.record("order:" + string(e.EventType()))
}

func (p *probe) OnJournalFlushed(_ context.Context, count int, _ time.Duration) error {
	return p.record("flushed")
}

func (p *probe) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type sleeper struct{}

func (sleeper) Name() string { return "sleeper" }

func (sleeper) OnShutdown(ctx context.Context) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func dispatch(t *testing.T, r *plugin.Registry, seq uint64, e event.Event) {
	t.Helper()
	rec, err := event.NewRecord(seq, e, time.Now())
	require.NoError(t, err)
	r.EmitEvent(context.Background(), rec, e)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&probe{name: "a"}))
	assert.Error(t, r.Register(&probe{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("b"))
}

func TestEmitEventRoutesToTypedHooks(t *testing.T) {
	r := plugin.NewRegistry()
	p := &probe{name: "probe"}
	require.NoError(t, r.Register(p))

	dispatch(t, r, 1, event.CollectionExtended{CollectionID: 1, Added: 5})
	dispatch(t, r, 2, event.OrderStatusUpdated{OrderID: 1, Status: "Shipped"})
	dispatch(t, r, 3, event.CompositeReleased{CompositeID: 1})
	r.EmitJournalFlushed(context.Background(), 3, time.Millisecond)

	assert.Equal(t, []string{
		"collection:collection.extended",
		"event:collection.extended",
		"order:order.status_updated",
		"event:order.status_updated",
		"event:composite.released",
		"flushed",
	}, p.snapshot())
}

func TestHookFailuresDoNotStopDispatch(t *testing.T) {
	r := plugin.NewRegistry()
	bad := &probe{name: "bad", failing: true}
	good := &probe{name: "good"}
	require.NoError(t, r.Register(bad))
	require.NoError(t, r.Register(good))

	dispatch(t, r, 1, event.CollectionDeleted{CollectionID: 1})

	assert.Len(t, bad.snapshot(), 2)
	assert.Len(t, good.snapshot(), 2)
}

func TestSlowHooksTimeOut(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(sleeper{}))

	start := time.Now()
	r.EmitShutdown(context.Background())
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
