package mercato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/collection"
	"github.com/xraph/mercato/composite"
	"github.com/xraph/mercato/constituent"
	"github.com/xraph/mercato/custody"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/escrow"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/fulfillment"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/idempotency"
	"github.com/xraph/mercato/oracle"
	"github.com/xraph/mercato/order"
	"github.com/xraph/mercato/payment"
	"github.com/xraph/mercato/plugin"
	"github.com/xraph/mercato/pool"
	"github.com/xraph/mercato/store"
	"github.com/xraph/mercato/types"
)

// Identities are the addresses the market's components act as. Payment
// allowances are granted to Market.
type Identities struct {
	Market       types.Address `json:"market"`
	Composites   types.Address `json:"composites"`
	Constituents types.Address `json:"constituents"`
	Escrow       types.Address `json:"escrow"`
}

// DefaultIdentities returns the identities used when none are configured.
func DefaultIdentities() Identities {
	return Identities{
		Market:       "mercato:market",
		Composites:   "mercato:composites",
		Constituents: "mercato:constituents",
		Escrow:       "mercato:escrow",
	}
}

// Market is the settlement engine. Every mutating operation runs to
// completion under one lock, so no two operations interleave.
type Market struct {
	mu      sync.RWMutex
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   types.Clock

	// Collaborators
	auth        access.Authorizer
	fulfillers  fulfillment.Directory
	oracle      oracle.PriceOracle
	tokens      payment.TokenRegistry
	custody     custody.Ledger
	guard       idempotency.Guard
	platform    types.Address
	platformBps types.Bps
	ids         Identities

	// Ledgers
	constituents *constituent.Ledger
	composites   *composite.Ledger
	escrow       *escrow.Coordinator
	collections  *collection.Registry
	pool         *pool.Pool
	orders       *order.Ledger

	// Journal
	seq     *id.Sequence
	pending []event.Event
	journal chan *event.Record
	running bool

	// Background workers
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
	journalBufferSize    int
	checkpointInterval   time.Duration
	checkpointOnStop     bool
}

// New creates a Market over s. The authorizer, fulfiller directory, price
// oracle, token registry and custody ledger are required.
func New(s store.Store, opts ...Option) (*Market, error) {
	m := &Market{
		store:                s,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		clock:                types.SystemClock,
		ids:                  DefaultIdentities(),
		seq:                  id.NewSequence(0),
		stopChan:             make(chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		journalBufferSize:    10000,
		checkpointInterval:   time.Minute,
		checkpointOnStop:     true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	m.journal = make(chan *event.Record, m.journalBufferSize)
	m.wire()
	return m, nil
}

func (m *Market) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingCollaborator, name)
	}
	switch {
	case m.store == nil:
		return missing("store")
	case m.auth == nil:
		return missing("authorizer")
	case m.fulfillers == nil:
		return missing("fulfiller directory")
	case m.oracle == nil:
		return missing("price oracle")
	case m.tokens == nil:
		return missing("token registry")
	case m.custody == nil:
		return missing("custody ledger")
	}
	if !m.platformBps.Valid() {
		return errs.ErrInvalidShare
	}
	if m.platformBps > 0 && m.platform.IsZero() {
		return fmt.Errorf("platform: %w", errs.ErrInvalidAddress)
	}
	if m.journalBatchSize <= 0 || m.journalBufferSize <= 0 || m.journalFlushInterval <= 0 {
		return fmt.Errorf("%w: journal batch size, buffer size and flush interval must be positive", errs.ErrInputInvalid)
	}
	return nil
}

// wire builds the ledgers and connects escrow to the item ledgers.
func (m *Market) wire() {
	sink := event.SinkFunc(m.emit)

	m.constituents = constituent.New(constituent.Config{
		Identity: m.ids.Constituents,
		Minter:   m.ids.Composites,
		Escrow:   m.ids.Escrow,
		Clock:    m.clock,
	})
	m.composites = composite.New(composite.Config{
		Identity:     m.ids.Composites,
		Escrow:       m.ids.Escrow,
		Authorizer:   m.auth,
		Fulfillers:   m.fulfillers,
		Constituents: m.constituents,
		Events:       sink,
		Clock:        m.clock,
	})
	m.escrow = escrow.New(escrow.Config{
		Identity:   m.ids.Escrow,
		Authorizer: m.auth,
		Events:     sink,
	})
	m.escrow.Bind(m.composites, m.constituents)

	m.collections = collection.New(collection.Config{
		Market:     m.ids.Market,
		Authorizer: m.auth,
		Fulfillers: m.fulfillers,
		Events:     sink,
		Clock:      m.clock,
	})
	m.pool = pool.New(m.ids.Market, pool.WithEvents(sink), pool.WithClock(m.clock))
	m.orders = order.New(order.Config{
		Market:     m.ids.Market,
		Fulfillers: m.fulfillers,
		Events:     sink,
		Clock:      m.clock,
	})
}

// Option configures a Market.
type Option func(*Market)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Market) {
		m.logger = logger
		m.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(m *Market) {
		_ = m.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds how long a single plugin hook may run.
func WithHookTimeout(d time.Duration) Option {
	return func(m *Market) { m.plugins.WithTimeout(d) }
}

// WithAuthorizer sets the role check used by every component.
func WithAuthorizer(a access.Authorizer) Option {
	return func(m *Market) { m.auth = a }
}

// WithFulfillers sets the fulfiller directory.
func WithFulfillers(d fulfillment.Directory) Option {
	return func(m *Market) { m.fulfillers = d }
}

// WithOracle sets the USD price source.
func WithOracle(o oracle.PriceOracle) Option {
	return func(m *Market) { m.oracle = o }
}

// WithTokens sets the payment token allow-list.
func WithTokens(t payment.TokenRegistry) Option {
	return func(m *Market) { m.tokens = t }
}

// WithCustody sets the payment token ledger. Buyers approve the market
// identity on it.
func WithCustody(l custody.Ledger) Option {
	return func(m *Market) { m.custody = l }
}

// WithPlatform sets the platform fee recipient and its share of every line.
func WithPlatform(addr types.Address, share types.Bps) Option {
	return func(m *Market) {
		m.platform = addr
		m.platformBps = share
	}
}

// WithIdentities overrides the component addresses.
func WithIdentities(ids Identities) Option {
	return func(m *Market) { m.ids = ids }
}

// WithIdempotency enables idempotency keys on Buy.
func WithIdempotency(g idempotency.Guard) Option {
	return func(m *Market) { m.guard = g }
}

// WithJournalConfig configures journal batching.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(m *Market) {
		m.journalBatchSize = batchSize
		m.journalFlushInterval = flushInterval
	}
}

// WithJournalBuffer sets how many records may wait for the journal worker
// before writes fall back to the caller.
func WithJournalBuffer(size int) Option {
	return func(m *Market) { m.journalBufferSize = size }
}

// WithCheckpointInterval sets how often state is checkpointed. Zero
// disables periodic checkpoints.
func WithCheckpointInterval(d time.Duration) Option {
	return func(m *Market) { m.checkpointInterval = d }
}

// WithCheckpointOnStop controls the final checkpoint written by Stop.
func WithCheckpointOnStop(enabled bool) Option {
	return func(m *Market) { m.checkpointOnStop = enabled }
}

// WithClock sets the time source for record timestamps.
func WithClock(c types.Clock) Option {
	return func(m *Market) { m.clock = c }
}

// Start migrates the store, restores the latest checkpoint and begins
// background workers.
func (m *Market) Start(ctx context.Context) error {
	if err := m.store.Migrate(ctx); err != nil {
		return err
	}

	if err := m.restore(ctx); err != nil {
		return err
	}

	m.plugins.EmitInit(ctx, m)

	m.wg.Add(1)
	go m.journalWorker(ctx)

	if m.checkpointInterval > 0 {
		m.wg.Add(1)
		go m.checkpointWorker(ctx)
	}

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	m.logger.Info("market started",
		"batch_size", m.journalBatchSize,
		"flush_interval", m.journalFlushInterval,
		"checkpoint_interval", m.checkpointInterval,
		"last_seq", m.seq.Last(),
	)

	return nil
}

// Stop drains the journal, writes a final checkpoint and closes the store.
func (m *Market) Stop() error {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()

	ctx := context.Background()
	if m.checkpointOnStop {
		if err := m.Checkpoint(ctx); err != nil {
			m.logger.Error("failed to write final checkpoint", "error", err)
		}
	}

	m.plugins.EmitShutdown(ctx)

	return m.store.Close()
}

// restore loads the latest checkpoint, if any, and positions the journal
// sequence after the last stored record.
func (m *Market) restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var last uint64
	cp, err := m.store.LatestCheckpoint(ctx)
	switch {
	case errors.Is(err, errs.ErrNoCheckpoint):
	case err != nil:
		return fmt.Errorf("mercato: restore checkpoint: %w", err)
	default:
		m.apply(cp.State)
		last = cp.Seq
		m.logger.Info("restored checkpoint", "id", cp.ID.String(), "seq", cp.Seq)
	}

	recs, err := m.store.ListEvents(ctx, event.ListOpts{AfterSeq: last})
	if err != nil {
		return fmt.Errorf("mercato: scan journal: %w", err)
	}
	for _, r := range recs {
		if r.Seq > last {
			last = r.Seq
		}
	}
	m.seq = id.NewSequence(last)
	return nil
}

// ──────────────────────────────────────────────────
// Operation plumbing
// ──────────────────────────────────────────────────

// emit is the event sink of every ledger. It runs under m.mu.
func (m *Market) emit(e event.Event) {
	m.pending = append(m.pending, e)
}

type committed struct {
	rec *event.Record
	ev  event.Event
}

// exec runs fn as one atomic operation, journals the events it emitted and
// dispatches them to plugins once the lock is released.
func (m *Market) exec(ctx context.Context, fn func() error) error {
	batch, err := m.commit(ctx, fn)
	for _, c := range batch {
		m.plugins.EmitEvent(ctx, c.rec, c.ev)
	}
	return err
}

// commit runs fn under m.mu and seals whatever it emitted. The lock is
// released even if fn panics.
func (m *Market) commit(ctx context.Context, fn func() error) (batch []committed, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil, errs.ErrNotStarted
	}
	defer func() { batch = m.seal(ctx) }()
	return nil, fn()
}

// seal turns pending events into journal records and hands them to the
// journal worker. Called with m.mu held.
func (m *Market) seal(ctx context.Context) []committed {
	if len(m.pending) == 0 {
		return nil
	}

	now := m.clock()
	out := make([]committed, 0, len(m.pending))
	for _, e := range m.pending {
		rec, err := event.NewRecord(m.seq.Next(), e, now)
		if err != nil {
			m.logger.Error("failed to encode event", "type", e.EventType(), "error", err)
			continue
		}
		out = append(out, committed{rec: rec, ev: e})

		select {
		case m.journal <- rec:
		default:
			if err := m.store.AppendEvents(ctx, []*event.Record{rec}); err != nil {
				m.logger.Error("failed to append event",
					"error", err,
					"seq", rec.Seq,
					"type", rec.Type,
				)
			}
		}
	}
	m.pending = m.pending[:0]
	return out
}
