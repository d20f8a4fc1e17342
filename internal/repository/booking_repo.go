package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shareloop/shareloop-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOverlap is returned when an APPROVED booking already holds part of the
	// requested window.
	ErrOverlap = errors.New("overlapping approved booking")
	// ErrAlreadyDecided is returned when a status transition is attempted on a
	// booking that is no longer WAITING.
	ErrAlreadyDecided = errors.New("booking already decided")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	UpdateStatusFromWaiting(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error)
	FindByBooker(ctx context.Context, bookerID uint) ([]models.Booking, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]models.Booking, error)
	LastEndedBefore(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error)
	NextStartingAfter(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error)
	Clear(ctx context.Context) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create inserts a WAITING booking. The overlap check and the insert run in one
// transaction: candidate APPROVED rows for the item are locked first, so two
// concurrent requests for overlapping windows cannot both pass the check.
// Windows are half-open, so end == existing start does not conflict.
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Booking
		err := tx.Model(&models.Booking{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ? AND status = ?", booking.ItemID, models.StatusApproved).
			Where("start_date < ? AND end_date > ?", booking.EndDate, booking.StartDate).
			Take(&existing).Error

		if err == nil {
			return ErrOverlap
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(booking).Error
	})
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Booker").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatusFromWaiting moves a booking out of WAITING under a row lock so
// that of two concurrent decisions exactly one succeeds and the other sees
// ErrAlreadyDecided.
func (r *bookingRepository) UpdateStatusFromWaiting(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, id).Error; err != nil {
			return err
		}
		if booking.Status != models.StatusWaiting {
			return ErrAlreadyDecided
		}
		return tx.Model(&booking).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) FindByBooker(ctx context.Context, bookerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("booker_id = ?", bookerID).
		Order("start_date DESC").
		Preload("Item").
		Preload("Booker").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) FindByOwner(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID).
		Order("bookings.start_date DESC").
		Preload("Item").
		Preload("Booker").
		Find(&bookings).Error
	return bookings, err
}

// LastEndedBefore returns the APPROVED booking for the item with the latest end
// strictly before now, or nil if there is none.
func (r *bookingRepository) LastEndedBefore(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND end_date < ?", itemID, models.StatusApproved, now).
		Order("end_date DESC").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Clear removes every booking record. Administrative bulk reset only; nothing
// in the normal flow deletes bookings.
func (r *bookingRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&models.Booking{}).Error
}

// NextStartingAfter returns the APPROVED booking for the item with the earliest
// start strictly after now, or nil if there is none.
func (r *bookingRepository) NextStartingAfter(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND start_date > ?", itemID, models.StatusApproved, now).
		Order("start_date ASC").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
