package broker

import (
	"testing"

	"github.com/google/uuid"
)

func TestTransactionEvent_Validate(t *testing.T) {
	valid := func() TransactionEvent {
		return TransactionEvent{
			Action:        ActionCreated,
			AccessKey:     uuid.New(),
			TransactionID: uuid.New(),
			Symbol:        "AAPL",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*TransactionEvent)
		wantErr bool
	}{
		{"Created", func(*TransactionEvent) {}, false},
		{"Updated", func(e *TransactionEvent) { e.Action = ActionUpdated }, false},
		{"Deleted", func(e *TransactionEvent) { e.Action = ActionDeleted }, false},
		{"UnknownAction", func(e *TransactionEvent) { e.Action = "archived" }, true},
		{"MissingAccessKey", func(e *TransactionEvent) { e.AccessKey = uuid.Nil }, true},
		{"MissingSymbol", func(e *TransactionEvent) { e.Symbol = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(&event)
			if err := event.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionEvent_ValidateNil(t *testing.T) {
	var event *TransactionEvent
	if err := event.validate(); err == nil {
		t.Errorf("validate() error = nil, want error")
	}
}
