package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func UnmarshalEnvelope(b []byte) (pos.Envelope, error) {
	var env pos.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return pos.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// UnwrapPayload decodes the event-specific payload of an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
