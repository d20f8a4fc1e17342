package service

import (
	"context"
	"errors"
	"time"

	"github.com/shareloop/shareloop-backend/internal/models"
	"github.com/shareloop/shareloop-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")
	// ErrForbidden covers self-booking on create and any caller who is neither
	// booker nor owner on reads, or not the owner on decide.
	ErrForbidden = errors.New("operation not permitted for this user")
	// ErrItemUnavailable covers both the availability flag and window conflicts
	// with an existing approved booking.
	ErrItemUnavailable = errors.New("item is not available for booking")
	// ErrAlreadyDecided means the booking left WAITING earlier. Callers must
	// treat it as "already decided", not as retryable.
	ErrAlreadyDecided = errors.New("booking is not waiting for a decision")
	// ErrNoBookings signals that the user has no bookings at all. It is an
	// empty-collection signal, not a failure.
	ErrNoBookings = errors.New("user has no bookings")
)

// ItemSchedule is the owner-facing projection of an item's approved bookings
// around a single instant.
type ItemSchedule struct {
	LastBooking *models.Booking
	NextBooking *models.Booking
}

type BookingService interface {
	Create(ctx context.Context, bookerID, itemID uint, start, end time.Time) (*models.Booking, error)
	Decide(ctx context.Context, bookingID, ownerID uint, approved bool) (*models.Booking, error)
	GetByID(ctx context.Context, bookingID, requesterID uint) (*models.Booking, error)
	ListByBooker(ctx context.Context, bookerID uint, state models.BookingState, now time.Time) ([]models.Booking, error)
	ListByOwner(ctx context.Context, ownerID uint, state models.BookingState, now time.Time) ([]models.Booking, error)
	Schedule(ctx context.Context, itemID uint, now time.Time) (*ItemSchedule, error)
	ClearAll(ctx context.Context) error
}

type bookingService struct {
	bookings repository.BookingRepository
	users    repository.UserRepository
	items    repository.ItemRepository
}

func NewBookingService(bookings repository.BookingRepository, users repository.UserRepository, items repository.ItemRepository) BookingService {
	return &bookingService{
		bookings: bookings,
		users:    users,
		items:    items,
	}
}

// Create validates the booker and item, forbids self-booking, and persists a
// WAITING booking unless the window conflicts with an approved one. Only
// APPROVED bookings block a window: concurrent WAITING requests for the same
// window are allowed to coexist until the owner decides one of them.
func (s *bookingService) Create(ctx context.Context, bookerID, itemID uint, start, end time.Time) (*models.Booking, error) {
	booker, err := s.users.FindByID(ctx, bookerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	if item.OwnerID == bookerID {
		return nil, ErrForbidden
	}
	if !item.Available {
		return nil, ErrItemUnavailable
	}

	booking := &models.Booking{
		StartDate: start,
		EndDate:   end,
		ItemID:    itemID,
		BookerID:  bookerID,
		Status:    models.StatusWaiting,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, ErrItemUnavailable
		}
		return nil, err
	}

	booking.Item = *item
	booking.Booker = *booker
	return booking, nil
}

// Decide is the sole status mutation path. It is deliberately not idempotent: a
// second call on the same booking fails with ErrAlreadyDecided.
func (s *bookingService) Decide(ctx context.Context, bookingID, ownerID uint, approved bool) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Item.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if booking.Status != models.StatusWaiting {
		return nil, ErrAlreadyDecided
	}

	status := models.StatusApproved
	if !approved {
		status = models.StatusRejected
	}

	updated, err := s.bookings.UpdateStatusFromWaiting(ctx, bookingID, status)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyDecided) {
			return nil, ErrAlreadyDecided
		}
		return nil, err
	}
	return updated, nil
}

func (s *bookingService) GetByID(ctx context.Context, bookingID, requesterID uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.BookerID != requesterID && booking.Item.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) ListByBooker(ctx context.Context, bookerID uint, state models.BookingState, now time.Time) ([]models.Booking, error) {
	if err := s.requireUser(ctx, bookerID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.FindByBooker(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	return filterByState(bookings, state, now)
}

func (s *bookingService) ListByOwner(ctx context.Context, ownerID uint, state models.BookingState, now time.Time) ([]models.Booking, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return filterByState(bookings, state, now)
}

// Schedule computes the last/next approved booking around now for an item. It
// is a read-only projection consumed by the item handlers for owner views.
func (s *bookingService) Schedule(ctx context.Context, itemID uint, now time.Time) (*ItemSchedule, error) {
	last, err := s.bookings.LastEndedBefore(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.bookings.NextStartingAfter(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	return &ItemSchedule{LastBooking: last, NextBooking: next}, nil
}

// ClearAll wipes every booking. Administrative bulk reset, outside the normal
// lifecycle.
func (s *bookingService) ClearAll(ctx context.Context) error {
	return s.bookings.Clear(ctx)
}

func (s *bookingService) requireUser(ctx context.Context, id uint) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// filterByState applies the temporal bucketing to a set already ordered by
// start descending. A user with bookings but none in the bucket gets an empty
// slice; a user with no bookings at all gets ErrNoBookings.
func filterByState(bookings []models.Booking, state models.BookingState, now time.Time) ([]models.Booking, error) {
	if len(bookings) == 0 {
		return nil, ErrNoBookings
	}
	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.InState(state, now) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}
