package observability

// StreamEvent is the envelope for conversation-stream events pushed to the
// broker: websocket lifecycle, fan-out failures. Stream names the event
// family, Name the concrete event within it.
type StreamEvent struct {
	Stream  string      `json:"stream"`
	Name    string      `json:"name"`
	Payload interface{} `json:"payload"`
}

// ConversationStreamKey routes conversation stream events on the topic
// exchange.
const ConversationStreamKey = "stream.conversations"

// TraceHeaders carries request correlation ids on published events.
func TraceHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["x-trace-id"] = traceID
	}
	return headers
}
