package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSyncMessage tells the worker that the model reached a new
// revision and the persisted snapshot should be re-exported. It is
// deliberately small; the worker reads the actual snapshot from the
// database.
type SnapshotSyncMessage struct {
	Revision         int64     `json:"revision"`
	TransactionCount int       `json:"transaction_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewSnapshotSyncMessage creates a sync message for the given revision.
func NewSnapshotSyncMessage(revision int64, transactionCount int) *SnapshotSyncMessage {
	return &SnapshotSyncMessage{
		Revision:         revision,
		TransactionCount: transactionCount,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSyncMessageFromJSON creates a message from JSON bytes
func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
