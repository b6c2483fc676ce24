package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrMalformed reports an undecodable or structurally invalid message.
// The bridge drops these without propagating.
var ErrMalformed = errors.New("malformed bridge message")

// Decode parses and validates a raw bridge message.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Type {
	case KindEvent:
		if msg.Event == "" {
			return nil, fmt.Errorf("%w: event without name", ErrMalformed)
		}
	case KindCall:
		if msg.ID == "" || msg.Name == "" {
			return nil, fmt.Errorf("%w: call requires id and name", ErrMalformed)
		}
	case KindStyle:
		if len(msg.Style) == 0 {
			return nil, fmt.Errorf("%w: setStyle without style object", ErrMalformed)
		}
	case KindDragRegions:
		if len(msg.Regions) == 0 {
			// An explicit empty list is valid; a missing field is not.
			return nil, fmt.Errorf("%w: setDragRegions without regions", ErrMalformed)
		}
	case KindWindowOp:
		if msg.Op == "" {
			return nil, fmt.Errorf("%w: windowOp without op", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, msg.Type)
	}

	return &msg, nil
}

// Encode serializes a bridge message.
func Encode(msg *Message) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bridge message: %w", err)
	}
	return data, nil
}

// Scalar converts a raw JSON value into the bridge's typed scalar domain:
// nil (absent), bool, float64, or string. Objects and arrays collapse to
// nil, matching the evaluation result contract.
func Scalar(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch s := v.(type) {
	case bool:
		return s
	case float64:
		return s
	case string:
		return s
	default:
		return nil
	}
}

// MarshalScalar serializes a typed scalar back to JSON. nil encodes as null.
func MarshalScalar(v any) (json.RawMessage, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scalar: %w", err)
	}
	return data, nil
}
