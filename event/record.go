package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/mercato/id"
)

// Record is the journaled form of an event.
type Record struct {
	ID         id.EventID      `json:"id"`
	Seq        uint64          `json:"seq"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewRecord encodes e as the record with sequence number seq.
func NewRecord(seq uint64, e Event, at time.Time) (*Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event: encode %s: %w", e.EventType(), err)
	}
	return &Record{
		ID:         id.NewEventID(),
		Seq:        seq,
		Type:       e.EventType(),
		Payload:    payload,
		OccurredAt: at.UTC(),
	}, nil
}

// Decode returns the typed event held by the record.
func (r *Record) Decode() (Event, error) {
	var e Event
	switch r.Type {
	case TypeCompositeCreated:
		e = &CompositeCreated{}
	case TypeCompositeReleased:
		e = &CompositeReleased{}
	case TypeConstituentsReleased:
		e = &ConstituentsReleased{}
	case TypeCollectionCreated:
		e = &CollectionCreated{}
	case TypeCollectionExtended:
		e = &CollectionExtended{}
	case TypeCollectionUpdated:
		e = &CollectionUpdated{}
	case TypeCollectionDeleted:
		e = &CollectionDeleted{}
	case TypeItemsBurned:
		e = &ItemsBurned{}
	case TypeTokensBought:
		e = &TokensBought{}
	case TypeOrderStatusUpdated:
		e = &OrderStatusUpdated{}
	case TypeOrderFulfillerUpdated:
		e = &OrderFulfillerUpdated{}
	case TypeOrderDetailsUpdated:
		e = &OrderDetailsUpdated{}
	default:
		return nil, fmt.Errorf("event: unknown type %q", r.Type)
	}
	if err := json.Unmarshal(r.Payload, e); err != nil {
		return nil, fmt.Errorf("event: decode %s: %w", r.Type, err)
	}
	return e, nil
}
