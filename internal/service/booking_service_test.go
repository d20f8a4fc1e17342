package service

import (
	"context"
	"testing"
	"time"

	"github.com/shareloop/shareloop-backend/internal/models"
	"github.com/shareloop/shareloop-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	createFn   func(ctx context.Context, b *models.Booking) error
	findByIDFn func(ctx context.Context, id uint) (*models.Booking, error)
	updateFn   func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error)
	byBookerFn func(ctx context.Context, bookerID uint) ([]models.Booking, error)
	byOwnerFn  func(ctx context.Context, ownerID uint) ([]models.Booking, error)
	lastFn     func(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error)
	nextFn     func(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return m.createFn(ctx, b)
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) UpdateStatusFromWaiting(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
	return m.updateFn(ctx, id, to)
}
func (m *mockBookingRepo) FindByBooker(ctx context.Context, bookerID uint) ([]models.Booking, error) {
	return m.byBookerFn(ctx, bookerID)
}
func (m *mockBookingRepo) FindByOwner(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	return m.byOwnerFn(ctx, ownerID)
}
func (m *mockBookingRepo) LastEndedBefore(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error) {
	return m.lastFn(ctx, itemID, now)
}
func (m *mockBookingRepo) NextStartingAfter(ctx context.Context, itemID uint, now time.Time) (*models.Booking, error) {
	return m.nextFn(ctx, itemID, now)
}
func (m *mockBookingRepo) Clear(ctx context.Context) error { return nil }

// --- Mock UserRepository ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id uint) (*models.User, error)
	existsFn   func(ctx context.Context, id uint) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) Exists(ctx context.Context, id uint) (bool, error) {
	return m.existsFn(ctx, id)
}

// --- Mock ItemRepository ---

type mockItemRepo struct {
	findByIDFn func(ctx context.Context, id uint) (*models.Item, error)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	return m.findByIDFn(ctx, id)
}

// --- Fixtures ---

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

const (
	ownerID  = uint(1)
	bookerID = uint(2)
	itemID   = uint(10)
)

func knownUsers() *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			user := models.User{Name: "Test User"}
			user.ID = id
			return &user, nil
		},
		existsFn: func(ctx context.Context, id uint) (bool, error) {
			return true, nil
		},
	}
}

func drillItem(available bool) *mockItemRepo {
	return &mockItemRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Item, error) {
			item := models.Item{Name: "Power drill", Available: available, OwnerID: ownerID}
			item.ID = id
			return &item, nil
		},
	}
}

func waitingBooking(id uint) *models.Booking {
	item := models.Item{OwnerID: ownerID}
	item.ID = itemID
	booking := models.Booking{
		StartDate: testNow.Add(time.Hour),
		EndDate:   testNow.Add(2 * time.Hour),
		ItemID:    itemID,
		Item:      item,
		BookerID:  bookerID,
		Status:    models.StatusWaiting,
	}
	booking.ID = id
	return &booking
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	var created *models.Booking
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b *models.Booking) error {
			b.ID = 7
			created = b
			return nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	booking, err := svc.Create(context.Background(), bookerID, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.NoError(t, err)
	assert.Equal(t, uint(7), booking.ID)
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.Equal(t, bookerID, booking.BookerID)
	assert.Equal(t, itemID, booking.ItemID)
	assert.NotNil(t, created)
}

func TestCreate_SelfBookingForbidden(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b *models.Booking) error {
			t.Fatal("store must not be reached for a self-booking")
			return nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Create(context.Background(), ownerID, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreate_UnavailableItem(t *testing.T) {
	repo := &mockBookingRepo{}

	svc := NewBookingService(repo, knownUsers(), drillItem(false))
	_, err := svc.Create(context.Background(), bookerID, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestCreate_OverlapRejected(t *testing.T) {
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b *models.Booking) error {
			return repository.ErrOverlap
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Create(context.Background(), bookerID, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestCreate_UnknownUser(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewBookingService(&mockBookingRepo{}, users, drillItem(true))
	_, err := svc.Create(context.Background(), 99, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreate_UnknownItem(t *testing.T) {
	items := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Item, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewBookingService(&mockBookingRepo{}, knownUsers(), items)
	_, err := svc.Create(context.Background(), bookerID, 99, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	assert.ErrorIs(t, err, ErrItemNotFound)
}

// Only APPROVED bookings block a window: a second WAITING request for the same
// window is accepted and stays pending until the owner decides. Known product
// gap, preserved deliberately.
func TestCreate_ConcurrentWaitingAllowed(t *testing.T) {
	createdCount := 0
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b *models.Booking) error {
			createdCount++
			b.ID = uint(createdCount)
			return nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	start, end := testNow.Add(time.Hour), testNow.Add(2*time.Hour)

	first, err := svc.Create(context.Background(), bookerID, itemID, start, end)
	assert.NoError(t, err)
	second, err := svc.Create(context.Background(), 3, itemID, start, end)
	assert.NoError(t, err)

	assert.Equal(t, models.StatusWaiting, first.Status)
	assert.Equal(t, models.StatusWaiting, second.Status)
	assert.Equal(t, 2, createdCount)
}

// --- Decide ---

func TestDecide_Approve(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
		updateFn: func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
			b := waitingBooking(id)
			b.Status = to
			return b, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	booking, err := svc.Decide(context.Background(), 5, ownerID, true)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, booking.Status)
}

func TestDecide_Reject(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
		updateFn: func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
			b := waitingBooking(id)
			b.Status = to
			return b, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	booking, err := svc.Decide(context.Background(), 5, ownerID, false)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusRejected, booking.Status)
}

func TestDecide_NotOwnerForbidden(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Decide(context.Background(), 5, bookerID, true)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDecide_SecondDecisionFails(t *testing.T) {
	updateCalls := 0
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			b := waitingBooking(id)
			b.Status = models.StatusApproved
			return b, nil
		},
		updateFn: func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
			updateCalls++
			return nil, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Decide(context.Background(), 5, ownerID, false)

	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, 0, updateCalls, "a decided booking must not be written again")
}

func TestDecide_ConcurrentLoserSeesAlreadyDecided(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
		updateFn: func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
			// Another decision won the row lock between read and write
			return nil, repository.ErrAlreadyDecided
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Decide(context.Background(), 5, ownerID, true)

	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestDecide_UnknownBooking(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.Decide(context.Background(), 99, ownerID, true)

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// --- GetByID ---

func TestGetByID_BookerAndOwnerAllowed(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))

	booking, err := svc.GetByID(context.Background(), 5, bookerID)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), booking.ID)

	booking, err = svc.GetByID(context.Background(), 5, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), booking.ID)
}

func TestGetByID_StrangerForbidden(t *testing.T) {
	repo := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return waitingBooking(id), nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.GetByID(context.Background(), 5, 42)

	assert.ErrorIs(t, err, ErrForbidden)
}

// --- Listing ---

func listFixture() []models.Booking {
	past := *waitingBooking(1)
	past.StartDate = testNow.Add(-3 * time.Hour)
	past.EndDate = testNow.Add(-2 * time.Hour)
	past.Status = models.StatusApproved

	current := *waitingBooking(2)
	current.StartDate = testNow.Add(-time.Hour)
	current.EndDate = testNow.Add(time.Hour)
	current.Status = models.StatusApproved

	future := *waitingBooking(3)

	// ordered by start descending, as the store returns them
	return []models.Booking{future, current, past}
}

func TestListByBooker_AllAndBuckets(t *testing.T) {
	repo := &mockBookingRepo{
		byBookerFn: func(ctx context.Context, id uint) ([]models.Booking, error) {
			return listFixture(), nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))

	all, err := svc.ListByBooker(context.Background(), bookerID, models.StateAll, testNow)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	past, err := svc.ListByBooker(context.Background(), bookerID, models.StatePast, testNow)
	assert.NoError(t, err)
	assert.Len(t, past, 1)
	assert.Equal(t, uint(1), past[0].ID)

	waiting, err := svc.ListByBooker(context.Background(), bookerID, models.StateWaiting, testNow)
	assert.NoError(t, err)
	assert.Len(t, waiting, 1)
	assert.Equal(t, uint(3), waiting[0].ID)
}

func TestListByBooker_NoBookingsAtAll(t *testing.T) {
	repo := &mockBookingRepo{
		byBookerFn: func(ctx context.Context, id uint) ([]models.Booking, error) {
			return nil, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	_, err := svc.ListByBooker(context.Background(), bookerID, models.StateAll, testNow)

	assert.ErrorIs(t, err, ErrNoBookings)
}

// A user with bookings but an empty bucket gets an empty list, not ErrNoBookings.
func TestListByBooker_EmptyBucketIsNotNoBookings(t *testing.T) {
	repo := &mockBookingRepo{
		byBookerFn: func(ctx context.Context, id uint) ([]models.Booking, error) {
			return []models.Booking{*waitingBooking(1)}, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	bookings, err := svc.ListByBooker(context.Background(), bookerID, models.StatePast, testNow)

	assert.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestListByBooker_UnknownUser(t *testing.T) {
	users := &mockUserRepo{
		existsFn: func(ctx context.Context, id uint) (bool, error) {
			return false, nil
		},
	}

	svc := NewBookingService(&mockBookingRepo{}, users, drillItem(true))
	_, err := svc.ListByBooker(context.Background(), 99, models.StateAll, testNow)

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListByOwner_Buckets(t *testing.T) {
	repo := &mockBookingRepo{
		byOwnerFn: func(ctx context.Context, id uint) ([]models.Booking, error) {
			return listFixture(), nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))

	current, err := svc.ListByOwner(context.Background(), ownerID, models.StateCurrent, testNow)
	assert.NoError(t, err)
	assert.Len(t, current, 1)
	assert.Equal(t, uint(2), current[0].ID)

	future, err := svc.ListByOwner(context.Background(), ownerID, models.StateFuture, testNow)
	assert.NoError(t, err)
	assert.Len(t, future, 1)
	assert.Equal(t, uint(3), future[0].ID)
}

// Create a booking, see it under the WAITING filter, approve it, and watch it
// leave WAITING while ALL shows the new status.
func TestLifecycle_ApproveThenList(t *testing.T) {
	var stored *models.Booking
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b *models.Booking) error {
			b.ID = 1
			item := models.Item{OwnerID: ownerID}
			item.ID = itemID
			b.Item = item
			stored = b
			return nil
		},
		findByIDFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return stored, nil
		},
		updateFn: func(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
			stored.Status = to
			return stored, nil
		},
		byBookerFn: func(ctx context.Context, id uint) ([]models.Booking, error) {
			return []models.Booking{*stored}, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))

	_, err := svc.Create(context.Background(), bookerID, itemID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	assert.NoError(t, err)

	waiting, err := svc.ListByBooker(context.Background(), bookerID, models.StateWaiting, testNow)
	assert.NoError(t, err)
	assert.Len(t, waiting, 1)

	_, err = svc.Decide(context.Background(), 1, ownerID, true)
	assert.NoError(t, err)

	waiting, err = svc.ListByBooker(context.Background(), bookerID, models.StateWaiting, testNow)
	assert.NoError(t, err)
	assert.Empty(t, waiting)

	all, err := svc.ListByBooker(context.Background(), bookerID, models.StateAll, testNow)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, models.StatusApproved, all[0].Status)
}

// --- Schedule ---

func TestSchedule_LastAndNext(t *testing.T) {
	last := waitingBooking(1)
	last.Status = models.StatusApproved
	next := waitingBooking(2)
	next.Status = models.StatusApproved

	repo := &mockBookingRepo{
		lastFn: func(ctx context.Context, id uint, now time.Time) (*models.Booking, error) {
			return last, nil
		},
		nextFn: func(ctx context.Context, id uint, now time.Time) (*models.Booking, error) {
			return next, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	schedule, err := svc.Schedule(context.Background(), itemID, testNow)

	assert.NoError(t, err)
	assert.Equal(t, uint(1), schedule.LastBooking.ID)
	assert.Equal(t, uint(2), schedule.NextBooking.ID)
}

func TestSchedule_EmptyHistory(t *testing.T) {
	repo := &mockBookingRepo{
		lastFn: func(ctx context.Context, id uint, now time.Time) (*models.Booking, error) {
			return nil, nil
		},
		nextFn: func(ctx context.Context, id uint, now time.Time) (*models.Booking, error) {
			return nil, nil
		},
	}

	svc := NewBookingService(repo, knownUsers(), drillItem(true))
	schedule, err := svc.Schedule(context.Background(), itemID, testNow)

	assert.NoError(t, err)
	assert.Nil(t, schedule.LastBooking)
	assert.Nil(t, schedule.NextBooking)
}
