package amqp

import (
	"encoding/json"
	"time"
)

// Backup message operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// BackupMessage tells the worker that a ledger row changed. Upsert messages
// carry only the ID; the worker fetches the current row from the database.
// Delete messages carry a snapshot of the row since it no longer exists.
type BackupMessage struct {
	Op            string    `json:"op"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`

	ProfileID   int64  `json:"profile_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// NewUpsertMessage creates a message for a created or updated transaction.
func NewUpsertMessage(transactionID int64) *BackupMessage {
	return &BackupMessage{
		Op:            OpUpsert,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewDeleteMessage snapshots a transaction that is about to be removed.
func NewDeleteMessage(transactionID, profileID int64, kind string, amountCents int64, description string, date time.Time) *BackupMessage {
	return &BackupMessage{
		Op:            OpDelete,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
		ProfileID:     profileID,
		Kind:          kind,
		AmountCents:   amountCents,
		Description:   description,
		Date:          date.Format("2006-01-02"),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupMessageFromJSON creates a message from JSON bytes
func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
