package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shareloop/shareloop-backend/internal/models"
	"github.com/shareloop/shareloop-backend/internal/service"
	"github.com/shareloop/shareloop-backend/internal/services"
)

// CreateBooking handles the creation of a new booking request
func CreateBooking(svc service.BookingService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		var input struct {
			ItemID uint      `json:"itemId" binding:"required"`
			Start  time.Time `json:"start" binding:"required"`
			End    time.Time `json:"end" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Advisory shape checks; the service re-derives the real rules itself.
		if !input.Start.Before(input.End) {
			c.JSON(400, gin.H{"error": "start must be before end"})
			return
		}
		if input.Start.Before(time.Now()) {
			c.JSON(400, gin.H{"error": "start must not be in the past"})
			return
		}

		booking, err := svc.Create(c.Request.Context(), userId, input.ItemID, input.Start, input.End)
		if err != nil {
			c.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		hub.SendBookingRequested(booking.Item.OwnerID, services.BookingRequested{
			BookingID: booking.ID,
			ItemID:    booking.ItemID,
			BookerID:  booking.BookerID,
			Start:     booking.StartDate,
			End:       booking.EndDate,
		})
		publishBookingUpdate(c.Request.Context(), booking)

		c.JSON(201, booking)
	}
}

// DecideBooking lets the item owner approve or reject a waiting booking
func DecideBooking(svc service.BookingService, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bookingId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid booking id"})
			return
		}

		var input struct {
			Approved *bool `json:"approved" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		booking, err := svc.Decide(c.Request.Context(), bookingId, userId, *input.Approved)
		if err != nil {
			c.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		hub.SendBookingDecided(booking.BookerID, services.BookingDecided{
			BookingID: booking.ID,
			ItemID:    booking.ItemID,
			Status:    string(booking.Status),
		})
		publishBookingUpdate(c.Request.Context(), booking)

		c.JSON(200, booking)
	}
}

// GetBooking retrieves a booking for its booker or the item owner
func GetBooking(svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bookingId, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid booking id"})
			return
		}

		booking, err := svc.GetByID(c.Request.Context(), bookingId, userId)
		if err != nil {
			c.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, booking)
	}
}

// GetBookerBookings lists the caller's bookings filtered by state
func GetBookerBookings(svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		listBookings(c, svc.ListByBooker)
	}
}

// GetOwnerBookings lists bookings on the caller's items filtered by state
func GetOwnerBookings(svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		listBookings(c, svc.ListByOwner)
	}
}

func listBookings(c *gin.Context, list func(ctx context.Context, userID uint, state models.BookingState, now time.Time) ([]models.Booking, error)) {
	userId := c.GetUint("userId")

	state, err := models.ParseBookingState(c.Query("state"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// now is captured once so one listing call stays internally consistent
	bookings, err := list(c.Request.Context(), userId, state, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrNoBookings) {
			c.Status(204)
			return
		}
		c.JSON(bookingErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, bookings)
}

// ClearBookings wipes all booking records for an administrative reset
func ClearBookings(svc service.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ClearAll(c.Request.Context()); err != nil {
			c.JSON(500, gin.H{"error": "Failed to clear bookings"})
			return
		}
		c.Status(204)
	}
}

// bookingErrorStatus maps service errors onto HTTP status codes
func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		return 404
	case errors.Is(err, service.ErrForbidden):
		return 403
	case errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrAlreadyDecided):
		return 400
	default:
		return 500
	}
}

func publishBookingUpdate(ctx context.Context, booking *models.Booking) {
	_ = services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), map[string]interface{}{
		"itemId":   booking.ItemID,
		"bookerId": booking.BookerID,
	})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
