package model

import (
	"time"

	"gorm.io/datatypes"
)

// TaskStatus is the lifecycle state of a maintenance task. Any status may
// follow any other.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "Open"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// ActiveStatuses are the statuses counted as outstanding work.
var ActiveStatuses = []TaskStatus{StatusOpen, StatusInProgress}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Photo is an uploaded attachment: the public URL and the object store path.
type Photo struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// MaintenanceTask is a work item scoped to one property.
type MaintenanceTask struct {
	ID          string                     `gorm:"primaryKey;size:36" json:"id"`
	PropertyID  string                     `gorm:"size:36;not null;index" json:"propertyId"`
	Title       string                     `gorm:"size:256;not null" json:"title"`
	Description string                     `gorm:"type:text" json:"description"`
	Status      TaskStatus                 `gorm:"size:32;not null;index" json:"status"`
	Deadline    *time.Time                 `json:"deadline"`
	CreatedAt   time.Time                  `gorm:"not null;index" json:"createdAt"`
	Photos      datatypes.JSONSlice[Photo] `json:"photos"`
	CheckIn     *time.Time                 `json:"checkIn,omitempty"`
	CheckOut    *time.Time                 `json:"checkOut,omitempty"`
}

// TableName keeps the table name short.
func (MaintenanceTask) TableName() string {
	return "tasks"
}
