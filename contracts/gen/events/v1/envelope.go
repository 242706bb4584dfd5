package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned wire form shared by every event this system
// emits (payout.completed, invoice.created/verified/settled/expired/failed).
// Contract-only package: fields may be added, never renamed or removed.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
