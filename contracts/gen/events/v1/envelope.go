package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope shared by the API and worker
// processes. Fields are append-only.
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

// Decode unmarshals Data into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.Data, out)
}
