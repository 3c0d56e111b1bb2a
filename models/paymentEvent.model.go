package models

import (
	"time"

	"gorm.io/datatypes"
)

// Outcomes recorded on a payment event audit row
const (
	PaymentEventProcessed      = "processed"
	PaymentEventDuplicate      = "duplicate"
	PaymentEventAmountMismatch = "amount_mismatch"
	PaymentEventRejected       = "rejected"
)

// PaymentEvent is an append-only audit record of an inbound gateway webhook.
// Rows are written for every event that reaches an enrollment, including
// duplicates and rejected ones, and are never updated or deleted.
type PaymentEvent struct {
	ID            string         `json:"id" gorm:"type:char(36);primaryKey"`
	TransactionID string         `json:"transaction_id" gorm:"index"`
	OrderID       uint           `json:"order_id" gorm:"index"`
	EventStatus   string         `json:"event_status"` // SUCCESS, FAILED, PENDING as sent by the gateway
	Outcome       string         `json:"outcome"`
	Payload       datatypes.JSON `json:"payload"`
	ReceivedAt    time.Time      `json:"received_at"`
}
