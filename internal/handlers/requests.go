package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shareloop/shareloop-backend/internal/models"
	"gorm.io/gorm"
)

// CreateItemRequest posts a wish for an item that is not listed yet
func CreateItemRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		var input struct {
			Description string `json:"description" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var requester models.User
		if err := db.First(&requester, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		request := models.ItemRequest{
			Description: input.Description,
			RequesterID: userId,
		}

		if err := db.Create(&request).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create request"})
			return
		}

		c.JSON(201, request)
	}
}

// ListOwnRequests retrieves the caller's requests with responding items
func ListOwnRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var requester models.User
		if err := db.First(&requester, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		var requests []models.ItemRequest
		err := db.Where("requester_id = ?", userId).
			Order("created_at DESC").
			Preload("Items").
			Find(&requests).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch requests"})
			return
		}

		c.JSON(200, requests)
	}
}

// ListOtherRequests retrieves requests posted by other users
func ListOtherRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var requests []models.ItemRequest
		err := db.Where("requester_id <> ?", userId).
			Order("created_at DESC").
			Preload("Items").
			Find(&requests).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch requests"})
			return
		}

		c.JSON(200, requests)
	}
}

// GetItemRequest retrieves a single request with responding items
func GetItemRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		requestId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid request id"})
			return
		}

		var requester models.User
		if err := db.First(&requester, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		var request models.ItemRequest
		if err := db.Preload("Items").First(&request, requestId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Request not found"})
			return
		}

		c.JSON(200, request)
	}
}
