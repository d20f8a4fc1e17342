package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const userHeader = "X-Sharer-User-Id"

// Identity extracts the caller id set by the edge tier. The id is already
// trusted; only presence and shape are checked here.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(userHeader)
		if header == "" {
			c.JSON(401, gin.H{"error": "X-Sharer-User-Id header required"})
			c.Abort()
			return
		}

		id, err := strconv.ParseUint(header, 10, 32)
		if err != nil || id == 0 {
			c.JSON(400, gin.H{"error": "X-Sharer-User-Id must be a positive number"})
			c.Abort()
			return
		}

		c.Set("userId", uint(id))
		c.Next()
	}
}
