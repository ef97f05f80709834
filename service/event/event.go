package event

import (
	"time"

	"github.com/viant/rrsched/internal/clock"
)

// Context describes where an event originated
type Context struct {
	RunID     string `json:"runID"`
	Tick      int    `json:"tick"`
	EventType string `json:"eventType"`
	Component string `json:"component"`
}

// Event wraps a payload with its origin
type Event[T any] struct {
	Context   *Context  `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
	Data      T         `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
