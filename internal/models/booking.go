package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BookingStatus is the stored lifecycle status of a booking. A booking is
// created WAITING and moves exactly once to APPROVED or REJECTED.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// BookingState is a listing filter. ALL/CURRENT/PAST/FUTURE select by wall-clock
// time regardless of status; WAITING/REJECTED select by status regardless of time.
// It is a separate enumeration from BookingStatus even though two values coincide.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState maps a query parameter to a BookingState. Empty input
// defaults to ALL.
func ParseBookingState(s string) (BookingState, error) {
	if s == "" {
		return StateAll, nil
	}
	switch state := BookingState(strings.ToUpper(s)); state {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return state, nil
	default:
		return "", fmt.Errorf("Unknown state: %s", s)
	}
}

type Booking struct {
	gorm.Model
	StartDate time.Time     `json:"start" gorm:"not null;index"`
	EndDate   time.Time     `json:"end" gorm:"not null"`
	ItemID    uint          `json:"itemId" gorm:"not null;index"`
	Item      Item          `json:"item"`
	BookerID  uint          `json:"bookerId" gorm:"not null;index"`
	Booker    User          `json:"booker"`
	Status    BookingStatus `json:"status" gorm:"not null;default:'WAITING'"`
}

// InState reports whether the booking falls into the given listing bucket at
// the instant now. The booking window is half-open: [start, end).
func (b *Booking) InState(state BookingState, now time.Time) bool {
	switch state {
	case StateAll:
		return true
	case StateCurrent:
		return !b.StartDate.After(now) && b.EndDate.After(now)
	case StatePast:
		return b.EndDate.Before(now)
	case StateFuture:
		return b.StartDate.After(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	default:
		return false
	}
}
