// Package repository holds the read and write operations the HTTP API exposes
// for properties, tasks, comments and the dashboard.
package repository

import (
	"context"
	"errors"

	"property-maintenance-backend/internal/notification"
)

var (
	// ErrNotFound is returned when an operation targets a record that must exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// BookingSource looks up the guests currently staying at a booking-system property.
type BookingSource interface {
	GuestsForProperty(ctx context.Context, lodgifyPropertyID int64) (int, error)
}

// Notifier receives task events. Implementations must not block.
type Notifier interface {
	Dispatch(ev notification.Event) bool
}

func notify(n Notifier, ev notification.Event) {
	if n != nil {
		n.Dispatch(ev)
	}
}
