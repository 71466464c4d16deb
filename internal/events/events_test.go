package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessage(t *testing.T) {
	e := New(OrderCreated, "o1", map[string]string{"userId": "u1"})
	msg, err := toMessage(e)
	require.NoError(t, err)

	assert.Equal(t, "o1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, OrderCreated, string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, OrderCreated, decoded["type"])
	assert.Equal(t, "u1", decoded["payload"].(map[string]any)["userId"])
}

func TestToMessageRejectsUnencodable(t *testing.T) {
	_, err := toMessage(New(OrderCreated, "o1", make(chan int)))
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(ProductCreated, "p1", nil), New(ProductDeleted, "p1", nil)))
	assert.Equal(t, []string{ProductCreated, ProductDeleted}, r.Types())
	assert.Len(t, r.Events(), 2)
}
