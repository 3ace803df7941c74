package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"

	"github.com/xraph/mercato/checkpoint"
	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/id"
)

// Payloads and checkpoint state are kept as native documents so they can be
// queried from the shell. They travel through relaxed extended JSON.

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:mercato_events"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	Seq        int64     `grove:"seq"         bson:"seq"`
	Type       string    `grove:"type"        bson:"type"`
	Payload    bson.D    `grove:"payload"     bson:"payload"`
	OccurredAt time.Time `grove:"occurred_at" bson:"occurred_at"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
}

func toEventModel(r *event.Record) (*eventModel, error) {
	payload, err := toDocument(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", r.Type, err)
	}
	return &eventModel{
		ID:         r.ID.String(),
		Seq:        int64(r.Seq),
		Type:       string(r.Type),
		Payload:    payload,
		OccurredAt: r.OccurredAt,
		CreatedAt:  now(),
	}, nil
}

func fromEventModel(m *eventModel) (*event.Record, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	payload, err := fromDocument(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}

	return &event.Record{
		ID:         evtID,
		Seq:        uint64(m.Seq),
		Type:       event.Type(m.Type),
		Payload:    payload,
		OccurredAt: m.OccurredAt,
	}, nil
}

// ==================== Checkpoint models ====================

type checkpointModel struct {
	grove.BaseModel `grove:"table:mercato_checkpoints"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Seq       int64     `grove:"seq"        bson:"seq"`
	State     bson.D    `grove:"state"      bson:"state"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
}

func toCheckpointModel(cp *checkpoint.Checkpoint) (*checkpointModel, error) {
	raw, err := json.Marshal(cp.State)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint state: %w", err)
	}
	state, err := toDocument(raw)
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
	raw, err := fromDocument(m.State)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}

	cp := &checkpoint.Checkpoint{
		ID:        cpID,
		Seq:       uint64(m.Seq),
		CreatedAt: m.CreatedAt,
	}
	if err := json.Unmarshal(raw, &cp.State); err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}
	return cp, nil
}

func toDocument(raw json.RawMessage) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc bson.D) (json.RawMessage, error) {
	if doc == nil {
		doc = bson.D{}
	}
	return bson.MarshalExtJSON(doc, false, false)
}
