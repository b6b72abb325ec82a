package model

import "time"

// Property is a managed rental unit.
type Property struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:256;not null" json:"name"`
	Address           string    `gorm:"size:512" json:"address"`
	ImageURL          string    `gorm:"size:1024" json:"imageUrl"`
	ImageHint         string    `gorm:"size:256" json:"imageHint"`
	OwnerID           string    `gorm:"size:128;index" json:"ownerId"`
	LodgifyPropertyID int64     `gorm:"index" json:"lodgifyPropertyId"`
	CurrentGuestCount *int      `json:"currentGuestCount,omitempty"` // Cache of the last computed value
	CreatedAt         time.Time `gorm:"not null;index" json:"createdAt"`

	// Only populated when a caller asks for the task list inline.
	Tasks []MaintenanceTask `gorm:"-" json:"tasks,omitempty"`
}
