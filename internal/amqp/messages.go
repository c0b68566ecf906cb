package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action names what happened to a transaction.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// TransactionEventMessage announces a change to one transaction. It carries
// only the id; consumers read the current row from storage.
type TransactionEventMessage struct {
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id int64, action Action) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Action:    action,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes a message and rejects unknown actions
// or missing ids.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid transaction id %d", msg.ID)
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("invalid action %q", msg.Action)
	}
	return &msg, nil
}
