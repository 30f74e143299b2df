package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID   string                 `json:"tool_id" binding:"required"`
	Params   map[string]interface{} `json:"params"`
	AppletID *string                `json:"applet_id,omitempty"`
}

// WSMessage represents an inbound WebSocket frame from an applet
type WSMessage struct {
	Type   string                 `json:"type"`
	ID     string                 `json:"id,omitempty"`
	Tool   string                 `json:"tool,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// WSReply represents an outbound WebSocket frame
type WSReply struct {
	Type      string  `json:"type"`
	ID        string  `json:"id,omitempty"`
	Result    *Result `json:"result,omitempty"`
	Message   string  `json:"message,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}
