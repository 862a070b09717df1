package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpClose  = "close"
	OpReopen = "reopen"
)

// LedgerEvent announces a committed ledger mutation. It carries only the
// entity kind and id; consumers read the current state from the ledger.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(op, entity, entityID string) LedgerEvent {
	return LedgerEvent{
		ID:        uuid.NewString(),
		Op:        op,
		Entity:    entity,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<entity>.<op>", e.g. "transaction.create".
func (e LedgerEvent) RoutingKey() string {
	return e.Entity + "." + e.Op
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, err
	}
	return ev, nil
}
