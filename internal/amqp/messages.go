package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// EventType names a change to the ledger or the budgets.
type EventType string

const (
	EventTransactionAppended  EventType = "transaction.appended"
	EventTransactionsImported EventType = "transactions.imported"
	EventBudgetSet            EventType = "budget.set"
	EventLedgerRestored       EventType = "ledger.restored"
)

// LedgerEvent is published after every successful write. Transaction
// fields are set only for transaction.appended and budget.set events.
type LedgerEvent struct {
	ID                   string    `json:"id"`
	Type                 EventType `json:"type"`
	Period               string    `json:"period"`
	Kind                 string    `json:"kind,omitempty"`
	Category             string    `json:"category,omitempty"`
	Amount               int64     `json:"amount,omitempty"`
	TransactionTimestamp float64   `json:"transaction_timestamp,omitempty"`
	Description          string    `json:"description,omitempty"`
	Count                int       `json:"count,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh ID.
func NewLedgerEvent(t EventType, period core.Period) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Period:    period.String(),
		Timestamp: time.Now(),
	}
}

// NewTransactionEvent describes an appended transaction. The period is
// the transaction's month in loc.
func NewTransactionEvent(tx core.Transaction, loc *time.Location) *LedgerEvent {
	ev := NewLedgerEvent(EventTransactionAppended, core.PeriodOf(tx.Time(loc)))
	ev.Kind = string(tx.Kind)
	ev.Category = tx.Category
	ev.Amount = tx.Amount.Minor
	ev.TransactionTimestamp = tx.Timestamp
	ev.Description = tx.Description
	return ev
}

// Transaction rebuilds the transaction carried by an appended event.
func (m *LedgerEvent) Transaction() (core.Transaction, error) {
	kind, err := core.ParseKind(m.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Timestamp:   m.TransactionTimestamp,
		Kind:        kind,
		Category:    m.Category,
		Description: m.Description,
		Amount:      core.Money{Minor: m.Amount},
	}
	return t, t.Validate()
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
