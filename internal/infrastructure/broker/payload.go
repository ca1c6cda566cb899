package broker

import (
	"errors"

	"github.com/google/uuid"
)

// EventAction tells the consumer which transaction lifecycle step happened.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

// TransactionEvent is the wire message published after a transaction write.
// The transaction itself is already persisted; the event only identifies it so
// the consumer can reconcile the affected position.
type TransactionEvent struct {
	Action        EventAction `json:"action"`
	AccessKey     uuid.UUID   `json:"access_key"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	Symbol        string      `json:"symbol"`
}

func (e *TransactionEvent) validate() error {
	if e == nil {
		return errors.New("transaction event is nil")
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return errors.New("unknown event action: " + string(e.Action))
	}
	if e.AccessKey == uuid.Nil {
		return errors.New("transaction event without access key")
	}
	if e.Symbol == "" {
		return errors.New("transaction event without symbol")
	}
	return nil
}
