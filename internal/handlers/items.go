package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shareloop/shareloop-backend/internal/models"
	"github.com/shareloop/shareloop-backend/internal/service"
	"github.com/shareloop/shareloop-backend/internal/services"
	"gorm.io/gorm"
)

// CreateItem lists a new item for lending
func CreateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		var input struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description" binding:"required"`
			Available   *bool  `json:"available" binding:"required"`
			RequestID   *uint  `json:"requestId"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var owner models.User
		if err := db.First(&owner, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if input.RequestID != nil {
			var request models.ItemRequest
			if err := db.First(&request, *input.RequestID).Error; err != nil {
				c.JSON(404, gin.H{"error": "Item request not found"})
				return
			}
		}

		item := models.Item{
			Name:        input.Name,
			Description: input.Description,
			Available:   *input.Available,
			OwnerID:     userId,
			RequestID:   input.RequestID,
		}

		if err := db.Create(&item).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create item"})
			return
		}

		c.JSON(201, item)
	}
}

// UpdateItem updates an item's listing; only the owner may do this
func UpdateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		itemId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid item id"})
			return
		}

		var input struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
			Available   *bool   `json:"available"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var item models.Item
		if err := db.First(&item, itemId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}

		if item.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Only the owner may edit an item"})
			return
		}

		if input.Name != nil {
			item.Name = *input.Name
		}
		if input.Description != nil {
			item.Description = *input.Description
		}
		if input.Available != nil {
			item.Available = *input.Available
		}

		if err := db.Save(&item).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update item"})
			return
		}

		c.JSON(200, item)
	}
}

// GetItem retrieves an item with its comments. The owner additionally sees the
// last and next approved booking around the time of the call.
func GetItem(db *gorm.DB, svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		itemId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid item id"})
			return
		}

		var item models.Item
		if err := db.First(&item, itemId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}

		response, err := itemView(c, db, svc, item, userId, time.Now())
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load item"})
			return
		}

		c.JSON(200, response)
	}
}

// ListOwnerItems retrieves the caller's items, each with its booking schedule
func ListOwnerItems(db *gorm.DB, svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var items []models.Item
		if err := db.Where("owner_id = ?", userId).Order("id ASC").Find(&items).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch items"})
			return
		}

		now := time.Now()
		out := make([]gin.H, 0, len(items))
		for _, item := range items {
			view, err := itemView(c, db, svc, item, userId, now)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to load items"})
				return
			}
			out = append(out, view)
		}

		c.JSON(200, out)
	}
}

// SearchItems finds available items matching the text, with a short-lived cache
func SearchItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		text := c.Query("text")
		if text == "" {
			c.JSON(200, []models.Item{})
			return
		}

		if cached, err := services.GetSearchResults(c.Request.Context(), text); err == nil {
			c.JSON(200, cached)
			return
		}

		var items []models.Item
		pattern := "%" + text + "%"
		err := db.Where("available = ?", true).
			Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
			Order("id ASC").
			Find(&items).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to search items"})
			return
		}

		// A failed cache write only slows the next call down
		_ = services.SetSearchResults(c.Request.Context(), text, items)

		c.JSON(200, items)
	}
}

// UploadItemImage attaches a photo to an item; only the owner may do this
func UploadItemImage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		itemId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid item id"})
			return
		}

		var item models.Item
		if err := db.First(&item, itemId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}
		if item.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Only the owner may upload an image"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(400, gin.H{"error": "image file required"})
			return
		}

		imagePath, err := services.UploadImage(file, "items")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to store image"})
			return
		}

		if item.ImageURL != "" {
			_ = services.DeleteImage(item.ImageURL)
		}
		item.ImageURL = services.GetImageURL(imagePath)
		if err := db.Save(&item).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update item"})
			return
		}

		c.JSON(200, item)
	}
}

// AddComment stores a renter's comment after a completed rental
func AddComment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		itemId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid item id"})
			return
		}

		var input struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var item models.Item
		if err := db.First(&item, itemId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Item not found"})
			return
		}

		// Commenting requires a finished approved rental of this item
		var count int64
		err = db.Model(&models.Booking{}).
			Where("item_id = ? AND booker_id = ? AND status = ? AND end_date < ?",
				itemId, userId, models.StatusApproved, time.Now()).
			Count(&count).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check rental history"})
			return
		}
		if count == 0 {
			c.JSON(400, gin.H{"error": "Only past renters may comment on an item"})
			return
		}

		comment := models.Comment{
			Text:     input.Text,
			ItemID:   itemId,
			AuthorID: userId,
		}
		if err := db.Create(&comment).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create comment"})
			return
		}

		if err := db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to reload comment"})
			return
		}

		c.JSON(201, comment)
	}
}

// itemView builds the item payload with comments, augmented with the booking
// schedule when the requester owns the item.
func itemView(c *gin.Context, db *gorm.DB, svc service.BookingService, item models.Item, requesterID uint, now time.Time) (gin.H, error) {
	var comments []models.Comment
	if err := db.Where("item_id = ?", item.ID).Preload("Author").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	response := gin.H{
		"id":          item.ID,
		"name":        item.Name,
		"description": item.Description,
		"available":   item.Available,
		"ownerId":     item.OwnerID,
		"requestId":   item.RequestID,
		"imageUrl":    item.ImageURL,
		"comments":    comments,
	}

	if item.OwnerID == requesterID {
		schedule, err := svc.Schedule(c.Request.Context(), item.ID, now)
		if err != nil {
			return nil, err
		}
		response["lastBooking"] = schedule.LastBooking
		response["nextBooking"] = schedule.NextBooking
	}

	return response, nil
}
