package amqp

import (
	"encoding/json"
	"time"
)

// Message types routed through the sync queue.
const (
	MessageTypeSync   = "project.sync"
	MessageTypeDelete = "project.delete"
)

// ProjectMessage is a lightweight envelope for mirroring a project to the
// spreadsheet. It carries only the id and version, the worker fetches the
// full record from the database.
type ProjectMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncMessage creates a sync message for a created or updated project.
func NewSyncMessage(id, version int64) *ProjectMessage {
	return &ProjectMessage{
		Type:      MessageTypeSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewDeleteMessage creates a delete message for a removed project.
func NewDeleteMessage(id int64) *ProjectMessage {
	return &ProjectMessage{
		Type:      MessageTypeDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProjectMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProjectMessageFromJSON creates a message from JSON bytes
func ProjectMessageFromJSON(data []byte) (*ProjectMessage, error) {
	var msg ProjectMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
