package models

import (
	"gorm.io/gorm"
)

type Comment struct {
	gorm.Model
	Text     string `json:"text" gorm:"not null"`
	ItemID   uint   `json:"itemId" gorm:"not null;index"`
	AuthorID uint   `json:"authorId" gorm:"not null"`
	Author   User   `json:"author"`
}
