package catalog

import (
	"time"
)

// Definition documents one typed channel: its name, who owns it, and what
// its payload looks like.
type Definition struct {
	Name          string    `json:"name" validate:"required,max=100,channelname"`
	Module        string    `json:"module" validate:"omitempty,max=50,modulename"`
	Description   string    `json:"description" validate:"required"`
	PayloadType   string    `json:"payload_type" validate:"required"`
	PayloadFields []string  `json:"payload_fields,omitempty"`
	Optional      bool      `json:"optional"` // payload may be absent
	RegisteredAt  time.Time `json:"registered_at"`
}

// Error represents structured errors in the channel catalog
type Error struct {
	Type    ErrorType `json:"type"`
	Channel string    `json:"channel"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of catalog error
type ErrorType string

const (
	ErrorChannelNotFound    ErrorType = "channel_not_found"
	ErrorConflictingPayload ErrorType = "conflicting_payload"
	ErrorValidationFailed   ErrorType = "validation_failed"
)

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Stats summarizes the catalog
type Stats struct {
	TotalChannels    int            `json:"total_channels"`
	OptionalChannels int            `json:"optional_channels"`
	ModuleBreakdown  map[string]int `json:"module_breakdown"`
}
