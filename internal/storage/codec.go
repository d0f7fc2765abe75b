package storage

import (
	"encoding/json"
	"fmt"
)

// schemaVersion is bumped when a document layout changes incompatibly. A
// reader that meets a newer version refuses instead of misreading it.
const schemaVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

func marshalDocument(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return json.Marshal(envelope{Version: schemaVersion, Payload: payload})
}

func unmarshalDocument(data []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode document envelope: %w", err)
	}
	if env.Version != schemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaVersion, env.Version)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode document payload: %w", err)
	}
	return nil
}
