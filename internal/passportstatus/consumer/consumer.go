// Package consumer holds the event-bus subscribers that turn status-record
// events into metrics, audit log entries and outbound messages.
package consumer

import (
	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/eventbus"
)

// Subscriber is the registration side of the event bus.
type Subscriber interface {
	Subscribe(name string, handler eventbus.Handler, kinds ...eventbus.Kind) error
}

// StatusCodeLookup resolves a record's status code id.
type StatusCodeLookup interface {
	ByID(id string) (models.StatusCode, bool)
}
