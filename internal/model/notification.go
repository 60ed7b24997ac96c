// Package model contains the value types shared across the import pipeline.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ImportStatus describes the lifecycle of a file in the imports table. The
// worker owns every transition except the initial Pending row, which the
// upstream producer creates.
type ImportStatus string

const (
	StatusPending    ImportStatus = "Pending"
	StatusProcessing ImportStatus = "Processing"
	StatusProcessed  ImportStatus = "Processed"
	StatusFailed     ImportStatus = "Failed"
)

// FileNotification is one decoded queue message announcing that a file landed
// in object storage. The Status field is an advisory hint from the producer;
// the imports table is authoritative.
type FileNotification struct {
	ID        string       `json:"id"`
	S3Path    string       `json:"s3Path"`
	Status    ImportStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NotificationResult is one item of the notification stream: either a decoded
// notification or the error that prevented decoding it. Broker-level consume
// errors surface the same way so the stream itself never terminates on them.
type NotificationResult struct {
	Notification FileNotification
	Err          error
}

// notificationWire tolerates both names the producer has used for the path
// field. Unknown fields are ignored.
type notificationWire struct {
	ID          string       `json:"id"`
	S3Path      string       `json:"s3Path"`
	StoragePath string       `json:"storagePath"`
	Status      ImportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DecodeNotification parses a raw queue message. Missing id or storage path is
// a decode failure, not a zero-valued notification.
func DecodeNotification(data []byte) (FileNotification, error) {
	var wire notificationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return FileNotification{}, fmt.Errorf("decode notification: %w", err)
	}
	path := wire.S3Path
	if path == "" {
		path = wire.StoragePath
	}
	if strings.TrimSpace(wire.ID) == "" {
		return FileNotification{}, fmt.Errorf("decode notification: missing id")
	}
	if strings.TrimSpace(path) == "" {
		return FileNotification{}, fmt.Errorf("decode notification: missing storage path")
	}
	return FileNotification{
		ID:        wire.ID,
		S3Path:    path,
		Status:    wire.Status,
		CreatedAt: wire.CreatedAt,
	}, nil
}
