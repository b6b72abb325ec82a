package store

import "errors"

// ErrNotFound is returned by update operations whose target row does not exist.
var ErrNotFound = errors.New("record not found")

// GuestCountUpdate is one staged write of a property's cached guest count.
type GuestCountUpdate struct {
	PropertyID string
	Count      int
}
