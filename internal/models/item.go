package models

import (
	"gorm.io/gorm"
)

type Item struct {
	gorm.Model
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"not null"`
	Available   bool   `json:"available" gorm:"not null"`
	OwnerID     uint   `json:"ownerId" gorm:"not null;index"`
	Owner       User   `json:"-"`
	RequestID   *uint  `json:"requestId,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
