package mercato

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
)

// journalWorker writes committed records to the store in batches.
func (m *Market) journalWorker(ctx context.Context) {
	defer m.wg.Done()

	batch := make([]*event.Record, 0, m.journalBatchSize)
	ticker := time.NewTicker(m.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			// Drain whatever is still buffered.
			for drained := false; !drained; {
				select {
				case rec := <-m.journal:
					batch = append(batch, rec)
					if len(batch) >= m.journalBatchSize {
						m.flushJournal(ctx, batch)
						batch = make([]*event.Record, 0, m.journalBatchSize)
					}
				default:
					drained = true
				}
			}
			if len(batch) > 0 {
				m.flushJournal(ctx, batch)
			}
			return

		case rec := <-m.journal:
			batch = append(batch, rec)
			if len(batch) >= m.journalBatchSize {
				m.flushJournal(ctx, batch)
				batch = make([]*event.Record, 0, m.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				m.flushJournal(ctx, batch)
				batch = make([]*event.Record, 0, m.journalBatchSize)
			}
		}
	}
}

func (m *Market) flushJournal(ctx context.Context, batch []*event.Record) {
	start := time.Now()

	if err := m.store.AppendEvents(ctx, batch); err != nil {
		m.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
			"first_seq", batch[0].Seq,
		)
		return
	}

	elapsed := time.Since(start)
	m.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	m.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// checkpointWorker saves a checkpoint every checkpointInterval.
func (m *Market) checkpointWorker(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			if err := m.Checkpoint(ctx); err != nil {
				m.logger.Error("failed to save checkpoint", "error", err)
			}
		}
	}
}

// Checkpoint saves the state of every ledger together with the sequence of
// the last event it includes.
func (m *Market) Checkpoint(ctx context.Context) error {
	start := time.Now()

	m.mu.RLock()
	cp := &checkpoint.Checkpoint{
		ID:        id.NewCheckpointID(),
		Seq:       m.seq.Last(),
		State:     m.snapshot(),
		CreatedAt: m.clock().UTC(),
	}
	m.mu.RUnlock()

	if err := m.store.SaveCheckpoint(ctx, cp); err != nil {
		return fmt.Errorf("mercato: save checkpoint: %w", err)
	}

	elapsed := time.Since(start)
	m.plugins.EmitCheckpointSaved(ctx, cp.Seq, elapsed)

	m.logger.Debug("saved checkpoint",
		"seq", cp.Seq,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (m *Market) snapshot() checkpoint.State {
	return checkpoint.State{
		Constituents: m.constituents.Snapshot(),
		Composites:   m.composites.Snapshot(),
		Escrow:       m.escrow.Snapshot(),
		Collections:  m.collections.Snapshot(),
		Pool:         m.pool.Snapshot(),
		Orders:       m.orders.Snapshot(),
	}
}

func (m *Market) apply(st checkpoint.State) {
	m.constituents.Restore(st.Constituents)
	m.composites.Restore(st.Composites)
	m.escrow.Restore(st.Escrow)
	m.collections.Restore(st.Collections)
	m.pool.Restore(st.Pool)
	m.orders.Restore(st.Orders)
}

// ListEvents returns journaled records. Records still waiting for the
// journal worker are not included.
func (m *Market) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Record, error) {
	return m.store.ListEvents(ctx, opts)
}

// PurgeEvents deletes journaled records that occurred before the cutoff.
func (m *Market) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	return m.store.PurgeEvents(ctx, before)
}
