package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNotification(t *testing.T) {
	raw := []byte(`{"id":"abc","s3Path":"uploads/contacts.csv","status":"Pending","createdAt":"2024-05-01T10:30:00Z"}`)
	n, err := DecodeNotification(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", n.ID)
	assert.Equal(t, "uploads/contacts.csv", n.S3Path)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), n.CreatedAt)
}

func TestDecodeNotificationStoragePathAlias(t *testing.T) {
	raw := []byte(`{"id":"abc","storagePath":"uploads/contacts.csv","status":"Pending","createdAt":"2024-05-01T10:30:00Z"}`)
	n, err := DecodeNotification(raw)
	require.NoError(t, err)
	assert.Equal(t, "uploads/contacts.csv", n.S3Path)
}

func TestDecodeNotificationIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"id":"abc","s3Path":"uploads/contacts.csv","status":"Pending","createdAt":"2024-05-01T10:30:00Z","producer":"uploader-v2"}`)
	_, err := DecodeNotification(raw)
	assert.NoError(t, err)
}

func TestDecodeNotificationFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"id":"abc"`},
		{name: "missing id", raw: `{"s3Path":"uploads/contacts.csv"}`},
		{name: "blank id", raw: `{"id":"  ","s3Path":"uploads/contacts.csv"}`},
		{name: "missing path", raw: `{"id":"abc","status":"Pending"}`},
		{name: "blank path", raw: `{"id":"abc","s3Path":"   "}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeNotification([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}
