package model

import "time"

// TaskComment is an append-only note on a task.
type TaskComment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID          string    `gorm:"size:36;not null;index" json:"taskId"`
	Text            string    `gorm:"type:text;not null" json:"text"`
	UserID          string    `gorm:"size:128;not null" json:"userId"`
	UserDisplayName string    `gorm:"size:256" json:"userDisplayName"`
	CreatedAt       time.Time `gorm:"not null;index" json:"createdAt"`
}
