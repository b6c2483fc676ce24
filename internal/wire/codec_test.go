package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"message","event":"greeting","data":{"who":"world"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindEvent, msg.Type)
	assert.Equal(t, "greeting", msg.Event)
	assert.JSONEq(t, `{"who":"world"}`, string(msg.Data))
}

func TestDecodeCall(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"call","id":"abc","name":"add","args":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, KindCall, msg.Type)
	assert.Equal(t, "abc", msg.ID)
	assert.Equal(t, "add", msg.Name)
	assert.Len(t, msg.Args, 2)
}

func TestDecodeWindowOp(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"windowOp","op":"setTitle","value":"Hello"}`))
	require.NoError(t, err)
	assert.Equal(t, KindWindowOp, msg.Type)
	assert.Equal(t, OpSetTitle, msg.Op)
	assert.Equal(t, "Hello", Scalar(msg.Value))
}

func TestDecodeDragRegionsEmptyList(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"setDragRegions","regions":[]}`))
	require.NoError(t, err)
	assert.Equal(t, KindDragRegions, msg.Type)
	assert.Equal(t, "[]", string(msg.Regions))
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"unknown type":      `{"type":"teleport"}`,
		"event sans name":   `{"type":"message"}`,
		"call sans id":      `{"type":"call","name":"f"}`,
		"call sans name":    `{"type":"call","id":"x"}`,
		"style sans object": `{"type":"setStyle"}`,
		"op sans op":        `{"type":"windowOp"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := &Message{Type: KindEvent, Event: "tick", Data: json.RawMessage(`42`)}
	raw, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Event, out.Event)
	assert.Equal(t, "42", string(out.Data))
}

func TestScalarDomain(t *testing.T) {
	assert.Nil(t, Scalar(nil))
	assert.Nil(t, Scalar(json.RawMessage(`null`)))
	assert.Equal(t, true, Scalar(json.RawMessage(`true`)))
	assert.Equal(t, 2.5, Scalar(json.RawMessage(`2.5`)))
	assert.Equal(t, "hi", Scalar(json.RawMessage(`"hi"`)))
	// Composite values collapse to absent.
	assert.Nil(t, Scalar(json.RawMessage(`{"a":1}`)))
	assert.Nil(t, Scalar(json.RawMessage(`[1,2]`)))
}
