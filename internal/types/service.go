package types

// Category represents service categories
type Category string

const (
	CategoryNetwork Category = "network"
	CategoryPage    Category = "page"
	CategorySystem  Category = "system"
)

// Service represents a service definition
type Service struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Category     Category    `json:"category"`
	Capabilities []string    `json:"capabilities"`
	Tools        []Tool      `json:"tools"`
	DataModels   []DataModel `json:"data_models,omitempty"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// DataModel represents a data structure
type DataModel struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

// Context provides execution context for services
type Context struct {
	AppletID  *string `json:"applet_id,omitempty"`
	WindowID  *string `json:"window_id,omitempty"`
	RequestID *string `json:"request_id,omitempty"`
}

// Error is the flat error shape returned to callers. URL is set when the
// failure is tied to a specific request target.
type Error struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.URL != "" {
		return e.Message + " (" + e.URL + ")"
	}
	return e.Message
}

// Result represents a service execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *Error                 `json:"error,omitempty"`
}
