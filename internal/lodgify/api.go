package lodgify

import (
	"bytes"
	"encoding/json"
)

// Booking is the subset of a Lodgify v2 booking the service reads.
type Booking struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Arrival   string          `json:"arrival"`
	Departure string          `json:"departure"`
	Guests    int             `json:"guests"`
	Property  BookingProperty `json:"property"`
}

// BookingProperty identifies the rental a booking belongs to.
type BookingProperty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingsResponse models one page of the bookings endpoint.
type BookingsResponse struct {
	Count *int      `json:"count"`
	Items []Booking `json:"items"`
}

// decodeBookings accepts both the paged object form and a bare array.
func decodeBookings(body []byte) (*BookingsResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Booking
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return &BookingsResponse{Items: items}, nil
	}

	var resp BookingsResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SumGuestsByProperty totals guests per Lodgify property id. Bookings without
// a property id are ignored.
func SumGuestsByProperty(bookings []Booking) map[int64]int {
	totals := make(map[int64]int)
	for _, b := range bookings {
		if b.Property.ID == 0 {
			continue
		}
		totals[b.Property.ID] += b.Guests
	}
	return totals
}
