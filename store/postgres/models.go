package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
)

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:mercato_events"`

	ID         string          `grove:"id,pk"`
	Seq        int64           `grove:"seq"`
	Type       string          `grove:"type"`
	Payload    json.RawMessage `grove:"payload,type:jsonb"`
	OccurredAt time.Time       `grove:"occurred_at"`
	CreatedAt  time.Time       `grove:"created_at"`
}

func toEventModel(r *event.Record) *eventModel {
	return &eventModel{
		ID:         r.ID.String(),
		Seq:        int64(r.Seq),
		Type:       string(r.Type),
		Payload:    r.Payload,
		OccurredAt: r.OccurredAt,
		CreatedAt:  now(),
	}
}

func fromEventModel(m *eventModel) (*event.Record, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}

	return &event.Record{
		ID:         evtID,
		Seq:        uint64(m.Seq),
		Type:       event.Type(m.Type),
		Payload:    m.Payload,
		OccurredAt: m.OccurredAt,
	}, nil
}

// ==================== Checkpoint models ====================

type checkpointModel struct {
	grove.BaseModel `grove:"table:mercato_checkpoints"`

	ID        string          `grove:"id,pk"`
	Seq       int64           `grove:"seq"`
	State     json.RawMessage `grove:"state,type:jsonb"`
	CreatedAt time.Time       `grove:"created_at"`
}

func toCheckpointModel(cp *checkpoint.Checkpoint) (*checkpointModel, error) {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint state: %w", err)
	}
	return &checkpointModel{
		ID:        cp.ID.String(),
		Seq:       int64(cp.Seq),
		State:     state,
		CreatedAt: cp.CreatedAt,
	}, nil
}

func fromCheckpointModel(m *checkpointModel) (*checkpoint.Checkpoint, error) {
	cpID, err := id.ParseCheckpointID(m.ID)
	if err != nil {
		return nil, err
	}

	cp := &checkpoint.Checkpoint{
		ID:        cpID,
		Seq:       uint64(m.Seq),
		CreatedAt: m.CreatedAt,
	}
	if err := json.Unmarshal(m.State, &cp.State); err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}
	return cp, nil
}
