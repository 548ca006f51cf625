package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Event string     `json:"event"`
	Data  RawMessage `json:"data"`
}

func TestMarshalUnmarshal_RawMessage(t *testing.T) {
	data, err := Marshal(envelope{Event: "inited", Data: RawMessage(`{"status":true}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"inited","data":{"status":true}}`, string(data))

	var decoded envelope
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, "inited", decoded.Event)
	assert.JSONEq(t, `{"status":true}`, string(decoded.Data))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"code":0}`)))
	assert.False(t, Valid([]byte(`<html>`)))
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]int{"page": 2}))

	var decoded map[string]int
	require.NoError(t, NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, 2, decoded["page"])
}
