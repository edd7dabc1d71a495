package amqp

import (
	"time"

	"github.com/goccy/go-json"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// ImportCompletedMessage announces a committed spreadsheet import. It carries
// no rows; consumers read the current snapshot from the store.
type ImportCompletedMessage struct {
	Entity    core.EntityType `json:"entity"`
	FileName  string          `json:"file_name"`
	Rows      int             `json:"rows"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewImportCompletedMessage builds the message for ev. A zero event time is
// replaced with the current time.
func NewImportCompletedMessage(ev ports.ImportEvent) *ImportCompletedMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ImportCompletedMessage{
		Entity:    ev.Entity,
		FileName:  ev.FileName,
		Rows:      ev.Rows,
		Timestamp: ts,
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON decodes and checks a message body.
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Entity.IsValid() {
		return nil, core.ErrUnknownEntity
	}
	return &msg, nil
}
