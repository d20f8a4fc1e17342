package models

import (
	"gorm.io/gorm"
)

// ItemRequest is a wish posted by a user; items may be listed in response to it.
type ItemRequest struct {
	gorm.Model
	Description string `json:"description" gorm:"not null"`
	RequesterID uint   `json:"requesterId" gorm:"not null;index"`
	Requester   User   `json:"-"`
	Items       []Item `json:"items,omitempty" gorm:"foreignKey:RequestID"`
}
