package model

// StreamRequest is a single command sent to the streamer. Requests are
// always wrapped in a StreamRequests envelope on the wire.
type StreamRequest struct {
	Service    string            `json:"service"`
	RequestID  string            `json:"requestid"`
	Command    string            `json:"command"`
	Account    string            `json:"account"`
	Source     string            `json:"source"`
	Parameters map[string]string `json:"parameters"`
}

type StreamRequests struct {
	Requests []StreamRequest `json:"requests"`
}

// StreamMessage is one frame received from the streamer. A frame carries
// exactly one of the three kinds in practice.
type StreamMessage struct {
	Response []StreamResponse `json:"response,omitempty"`
	Notify   []StreamNotify   `json:"notify,omitempty"`
	Data     []StreamData     `json:"data,omitempty"`
}

type StreamContent struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type StreamResponse struct {
	Service   string        `json:"service"`
	RequestID string        `json:"requestid"`
	Command   string        `json:"command"`
	Timestamp int64         `json:"timestamp"`
	Content   StreamContent `json:"content"`
}

type StreamNotify struct {
	Heartbeat string        `json:"heartbeat,omitempty"`
	Service   string        `json:"service,omitempty"`
	Content   StreamContent `json:"content,omitempty"`
}

type StreamData struct {
	Service   string           `json:"service"`
	Timestamp int64            `json:"timestamp"`
	Command   string           `json:"command"`
	Content   []map[string]any `json:"content"`
}

func (m *StreamMessage) HasData() bool     { return len(m.Data) > 0 }
func (m *StreamMessage) HasNotify() bool   { return len(m.Notify) > 0 }
func (m *StreamMessage) HasResponse() bool { return len(m.Response) > 0 }
