package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shareloop/shareloop-backend/internal/models"
	"gorm.io/gorm"
)

// RegisterUser creates a new user account
func RegisterUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=8"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user := models.User{
			Name:     input.Name,
			Email:    input.Email,
			Password: input.Password,
		}
		if err := user.HashPassword(); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		if result := db.Create(&user); result.Error != nil {
			c.JSON(409, gin.H{"error": "Failed to create user: " + result.Error.Error()})
			return
		}

		c.JSON(201, gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		})
	}
}

// GetUser retrieves a user by id
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user id"})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		})
	}
}

// ListUsers retrieves all users
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.Find(&users).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch users"})
			return
		}

		out := make([]gin.H, 0, len(users))
		for _, user := range users {
			out = append(out, gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			})
		}
		c.JSON(200, out)
	}
}

// UpdateUser updates a user's profile information
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		// Update fields individually to handle empty strings properly
		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Email != nil {
			user.Email = *input.Email
		}

		if err := db.Save(&user).Error; err != nil {
			c.JSON(409, gin.H{"error": "Failed to update user"})
			return
		}

		c.JSON(200, gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		})
	}
}

// DeleteUser removes a user account
func DeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user id"})
			return
		}

		if err := db.Delete(&models.User{}, userId).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete user"})
			return
		}

		c.Status(204)
	}
}
