package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	routingKey string
	event      StreamEvent
	headers    map[string]string
	calls      int
}

func (s *recordingSink) Emit(ctx context.Context, routingKey string, event StreamEvent, headers map[string]string) error {
	s.routingKey = routingKey
	s.event = event
	s.headers = headers
	s.calls++
	return nil
}

func TestEmitStreamUsesDefaultSink(t *testing.T) {
	sink := &recordingSink{}
	SetEventSink(sink)
	defer SetEventSink(nil)

	event := StreamEvent{Stream: "conversations", Name: "ws_connect", Payload: map[string]interface{}{"conversation_id": 10}}
	err := EmitStream(context.Background(), ConversationStreamKey, event, TraceHeaders("req-1", "trace-1"))
	require.NoError(t, err)

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, ConversationStreamKey, sink.routingKey)
	assert.Equal(t, "ws_connect", sink.event.Name)
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "x-trace-id": "trace-1"}, sink.headers)
}

func TestEmitStreamWithoutSinkDropsEvent(t *testing.T) {
	SetEventSink(nil)

	err := EmitStream(context.Background(), ConversationStreamKey, StreamEvent{Name: "ws_error"}, nil)
	require.NoError(t, err)
}

func TestTraceHeadersSkipsEmptyValues(t *testing.T) {
	assert.Empty(t, TraceHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "req-1"}, TraceHeaders("req-1", ""))
	assert.Equal(t, map[string]string{"x-trace-id": "trace-1"}, TraceHeaders("", "trace-1"))
}

func TestMetaFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/conversations/10", nil)
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("X-Device-Id", "device-1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.RemoteAddr = "10.0.0.2:50000"

	meta := MetaFromRequest(req)
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, "device-1", meta.DeviceID)
	assert.Equal(t, "203.0.113.9", meta.IP)
}

func TestMetaFromRequestFallsBackToPeerAddress(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/conversations/10", nil)
	req.RemoteAddr = "10.0.0.2:50000"

	meta := MetaFromRequest(req)
	assert.Equal(t, "10.0.0.2", meta.IP)
}
